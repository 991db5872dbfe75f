package plc

import "github.com/gopcua/opcua/ua"

type OpcuaInt32 struct {
	nodeID string
	Value  int32
}

func NewOpcuaInt32(nodeID string, value int32) OpcuaInt32 {
	return OpcuaInt32{
		nodeID: nodeID,
		Value:  value,
	}
}

func (i OpcuaInt32) asReadValue() (*ua.ReadValueID, error) {
	return readValueID(i.nodeID)
}

func (i OpcuaInt32) asWriteValue() (*ua.WriteValue, error) {
	return writeValue(i.nodeID, i.Value)
}
