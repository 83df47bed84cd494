package config

import (
	"github.com/fsnotify/fsnotify"
)

// Watch 监听配置文件变更，每次写入后重新解析并回调 onChange。
// 解析或校验失败时回调 onError，保留旧配置。
// 未找到配置文件（仅用默认值/环境变量）时返回 false，不启动监听。
func Watch(path string, onChange func(*Config), onError func(error)) bool {
	v, err := newViper(path)
	if err != nil {
		onError(err)
		return false
	}
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		// 编辑器常以 rename 方式原子保存，Create 也需要处理
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			onError(err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return true
}
