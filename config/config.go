package config

// Initialize 触发本目录下各配置文件的 init 加载
// main.go 里 import 本包即可完成全部 config.Add 注册
func Initialize() {
}
