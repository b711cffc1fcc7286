package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/offline-note-vault/pkg/convert"
	"github.com/haierkeys/offline-note-vault/pkg/storage"
	"github.com/haierkeys/offline-note-vault/pkg/util"
	"github.com/haierkeys/offline-note-vault/pkg/workerpool"
	"github.com/haierkeys/offline-note-vault/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File        string            `yaml:"-"` // 配置文件路径，不序列化
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	App         AppSettings       `yaml:"app"`
	User        UserConfig        `yaml:"user"`
	Security    SecurityConfig    `yaml:"security"`
	Storage     storage.Config    `yaml:"storage"`
	Interceptor InterceptorConfig `yaml:"interceptor"`
	Backup      BackupConfig      `yaml:"backup"`
	Tracer      TracerConfig      `yaml:"tracer"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别
	Level string `yaml:"level" default:"warn"`
	// 日志文件
	File string `yaml:"file" default:"storage/logs/log.log"`
	// 生产模式（文件 JSON 输出）
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	// 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// 读超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// 写超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// 内部管理端口（指标、健康检查）
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"offline-note-vault-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"365d"` // Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 类型 sqlite mysql postgres
	Type string `yaml:"type" default:"sqlite"`
	// sqlite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// 用户名
	UserName string `yaml:"username"`
	// 密码
	Password string `yaml:"password"`
	// 主机
	Host string `yaml:"host"`
	// 数据库名
	Name string `yaml:"name"`
	// 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// 自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// 字符集
	Charset string `yaml:"charset"`
	// 解析时间
	ParseTime bool `yaml:"parse-time"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// 最大打开连接
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// 连接最大生命周期
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// 连接最大空闲时间
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// UserConfig 用户配置
type UserConfig struct {
	// 是否开放注册
	RegisterIsEnable bool `yaml:"register-is-enable" default:"true"`
}

// AppSettings 应用运行参数
type AppSettings struct {
	// 默认语言
	DefaultLang string `yaml:"default-lang" default:"en"`
	// 默认分页大小
	DefaultPageSize int `yaml:"default-page-size" default:"20"`
	// 最大分页大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// 默认请求超时（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// 单用户记录体积上限
	UserRecordSizeLimit string `yaml:"user-record-size-limit" default:"5MB"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"100"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// InterceptorConfig 离线请求网关配置
type InterceptorConfig struct {
	// 应用资源版本，决定缓存代名称
	AppVersion string `yaml:"app-version" default:"v3"`
	// 第三方资源抓取超时
	ThirdPartyTimeout string `yaml:"third-party-timeout" default:"5s"`
	// 允许缓存的第三方资源前缀
	Allowlist []string `yaml:"allowlist"`
	// 预缓存的应用壳资源
	PrecacheURLs []string `yaml:"precache-urls"`
	// 网络探测地址
	ProbeURL string `yaml:"probe-url" default:"https://www.google.com/generate_204"`
	// 网络探测间隔
	ProbeInterval string `yaml:"probe-interval" default:"30s"`
}

// BackupConfig 周期备份配置
type BackupConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" default:"false"`
	// cron 表达式
	Cron string `yaml:"cron" default:"0 3 * * *"`
	// 备份保留份数
	KeepCount int `yaml:"keep-count" default:"7"`
	// 失败告警邮件
	Mail BackupMailConfig `yaml:"mail"`
}

// BackupMailConfig 备份失败告警邮件
type BackupMailConfig struct {
	Enabled  bool   `yaml:"enabled" default:"false"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" default:"465"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	To       string `yaml:"to"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" default:"true"`
	// 追踪 ID 头名称
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 365 * 24 * time.Hour // 理论上不会走到这里，因为有默认值
}

// GetThirdPartyTimeout 获取第三方资源抓取超时
func (c *AppConfig) GetThirdPartyTimeout() time.Duration {
	if timeout, err := util.ParseDuration(c.Interceptor.ThirdPartyTimeout); err == nil {
		return timeout
	}
	return 5 * time.Second
}

// GetProbeInterval 获取网络探测间隔
func (c *AppConfig) GetProbeInterval() time.Duration {
	if interval, err := util.ParseDuration(c.Interceptor.ProbeInterval); err == nil {
		return interval
	}
	return 30 * time.Second
}

// GetUserRecordSizeLimit 获取单用户记录体积上限（字节）
func (c *AppConfig) GetUserRecordSizeLimit() int64 {
	return convert.StrTo(c.App.UserRecordSizeLimit).MustToSize(5 * 1024 * 1024)
}
