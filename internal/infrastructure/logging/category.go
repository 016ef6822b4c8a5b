package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Redis           Category = "Redis"
	Postgres        Category = "Postgres"
	MongoDB         Category = "MongoDB"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
	Session         Category = "Session"
	Replication     Category = "Replication"
	WebSocket       Category = "WebSocket"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Session
	Mutation SubCategory = "Mutation"
	Spin     SubCategory = "Spin"
	Members  SubCategory = "Members"
	Reaper   SubCategory = "Reaper"

	// Replication / WebSocket
	Publish   SubCategory = "Publish"
	Subscribe SubCategory = "Subscribe"
	Dispatch  SubCategory = "Dispatch"
	Connect   SubCategory = "Connect"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	HostIp       ExtraKey = "HostIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RequestBody  ExtraKey = "RequestBody"
	ResponseBody ExtraKey = "ResponseBody"
	ErrorMessage ExtraKey = "ErrorMessage"
	SessionID    ExtraKey = "SessionID"
	MemberID     ExtraKey = "MemberID"
	MessageType  ExtraKey = "MessageType"
	SpinID       ExtraKey = "SpinID"
	Outcome      ExtraKey = "Outcome"
	InstanceID   ExtraKey = "InstanceID"
	Count        ExtraKey = "Count"
)
