package conf

type Bootstrap struct {
	Server   *Server   `json:"server"`
	Auth     *Auth     `json:"auth"`
	Pipeline *Pipeline `json:"pipeline"`
}

type Auth struct {
	JwtKey string `json:"jwt_key"`
	// TokenTTL lifetime of issued tokens, e.g. "720h"
	TokenTTL string `json:"token_ttl"`
}

type Server struct {
	Http *HTTP `json:"http"`
	Grpc *GRPC `json:"grpc"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
	// MaxBody upper bound for submission payloads in bytes
	MaxBody int64 `json:"max_body"`
}

type GRPC struct {
	Addr string `json:"addr"`
	// HealthInterval how often the archive is probed, e.g. "15s"
	HealthInterval string `json:"health_interval"`
}

// Pipeline points at the report pipeline configuration
type Pipeline struct {
	Config string `json:"config"`
}
