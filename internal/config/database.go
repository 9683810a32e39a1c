package config

import "fmt"

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Database string `yaml:"database" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
	MaxConns int    `yaml:"max_conns" env:"MAX_CONNS"`
	MaxIdle  int    `yaml:"max_idle" env:"MAX_IDLE"`
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
