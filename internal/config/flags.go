package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 PARTYHUB_PORT
const EnvPrefix = "PARTYHUB"

// Flags 命令行参数，优先级高于配置文件
type Flags struct {
	ConfigPath string
	Host       string
	Port       int
	RedisAddr  string
	LogLevel   string
}

// Register 注册命令行参数
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.ConfigPath, "config", "c", DefaultPath, "path to the YAML config file (env: PARTYHUB_CONFIG)")
	fs.StringVar(&f.Host, "host", "", "address to bind to (env: PARTYHUB_HOST)")
	fs.IntVarP(&f.Port, "port", "p", 0, "port to listen on (env: PARTYHUB_PORT)")
	fs.StringVar(&f.RedisAddr, "redis-addr", "", "redis address; setting it enables redis (env: PARTYHUB_REDIS_ADDR)")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error (env: PARTYHUB_LOG_LEVEL)")
}

// BindEnv 让未在命令行显式设置的参数从环境变量取值
func BindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// Apply 用已设置的参数覆盖配置
func (f *Flags) Apply(fs *pflag.FlagSet, cfg *Config) error {
	if fs.Changed("host") {
		cfg.Server.Host = f.Host
	}
	if fs.Changed("port") {
		cfg.Server.Port = f.Port
	}
	if fs.Changed("redis-addr") {
		cfg.Redis.Addr = f.RedisAddr
		cfg.Redis.Enabled = f.RedisAddr != ""
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	return cfg.Validate()
}
