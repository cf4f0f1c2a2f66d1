package config

type WorkerKeyStruct struct {
	AuditEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AuditEventsQueue: "audit_events_queue",
}
