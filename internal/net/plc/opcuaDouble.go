package plc

import "github.com/gopcua/opcua/ua"

type OpcuaDouble struct {
	nodeID string
	Value  float64
}

func NewOpcuaDouble(nodeID string, value float64) OpcuaDouble {
	return OpcuaDouble{
		nodeID: nodeID,
		Value:  value,
	}
}

func (d OpcuaDouble) asReadValue() (*ua.ReadValueID, error) {
	return readValueID(d.nodeID)
}

func (d OpcuaDouble) asWriteValue() (*ua.WriteValue, error) {
	return writeValue(d.nodeID, d.Value)
}
