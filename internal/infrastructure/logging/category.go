package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Signaling       Category = "Signaling"
	Internal        Category = "Internal"
	Mongo           Category = "Mongo"
	Redis           Category = "Redis"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Signaling
	Join       SubCategory = "Join"
	Leave      SubCategory = "Leave"
	Forward    SubCategory = "Forward"
	RouteMiss  SubCategory = "RouteMiss"
	BadMessage SubCategory = "BadMessage"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RoomID       ExtraKey = "RoomId"
	ConnectionID ExtraKey = "ConnectionId"
	TargetID     ExtraKey = "TargetId"
	UserID       ExtraKey = "UserId"
	Event        ExtraKey = "Event"
	ErrorMessage ExtraKey = "ErrorMessage"
)
