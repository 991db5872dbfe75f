package plc

import "time"

const (
	OPCUA_ENDPOINT = "opc.tcp://127.0.0.1:4840/freeopcua/server/"

	// Namespace index the remote server registered the SawMill tree under.
	DEFAULT_NAMESPACE = 2

	CONNECT_MAX_RETRIES = 5
	CONNECT_MAX_ELAPSED = 30 * time.Second
)
