package model

import "time"

const (
	TransportExec   = "exec"
	TransportNative = "native"
)

// PublishConfig 一次發布所需的設定，解析完成後就不再修改
type PublishConfig struct {
	Hostname        string
	RemoteDirectory string
	Build           BuildConfig
	Transport       TransportConfig
}

type BuildConfig struct {
	Command   []string `yaml:"command"`
	OutputDir string   `yaml:"outputDir"`
}

type TransportConfig struct {
	Kind            string        `yaml:"kind"`
	User            string        `yaml:"user"`
	Port            int           `yaml:"port"`
	KeyFile         string        `yaml:"keyFile"`
	KeyFilePassword string        `yaml:"-"`
	KnownHostsFile  string        `yaml:"knownHostsFile"`
	InsecureHostKey bool          `yaml:"insecureHostKey"`
	DialTimeout     time.Duration `yaml:"dialTimeout"`
}

// Target 回傳 scp/ssh 使用的 [user@]host 形式
func (c TransportConfig) Target(hostname string) string {
	if c.User == "" {
		return hostname
	}
	return c.User + "@" + hostname
}
