package api

type ServerConfig struct {
	// ID 同時作為通知worker在consumer group裡的consumer名稱
	ID string

	Admin AdminConfig
	DB    DBConfig
	Redis RedisConfig
}

type AdminConfig struct {
	// Emails 允許使用後台操作的信箱清單
	Emails []string
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	ConsumerGroup string
	StreamKeys    RedisStreamKeys
}

type RedisStreamKeys struct {
	Notifications string
}
