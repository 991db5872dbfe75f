package plc

import (
	"github.com/gopcua/opcua/ua"
	"github.com/pkg/errors"
)

type OpcuaBool struct {
	nodeID string
	Value  bool
}

func NewOpcuaBool(nodeID string, value bool) OpcuaBool {
	return OpcuaBool{
		nodeID: nodeID,
		Value:  value,
	}
}

func (b OpcuaBool) asReadValue() (*ua.ReadValueID, error) {
	return readValueID(b.nodeID)
}

func (b OpcuaBool) asWriteValue() (*ua.WriteValue, error) {
	return writeValue(b.nodeID, b.Value)
}

func readValueID(id string) (*ua.ReadValueID, error) {
	nodeID, err := ua.ParseNodeID(id)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing nodeID %q", id)
	}

	return &ua.ReadValueID{
		NodeID:      nodeID,
		AttributeID: ua.AttributeIDValue,
	}, nil
}

func writeValue(id string, v any) (*ua.WriteValue, error) {
	nodeID, err := ua.ParseNodeID(id)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing nodeID %q", id)
	}

	value, err := ua.NewVariant(v)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating variant for %q", id)
	}

	return &ua.WriteValue{
		NodeID:      nodeID,
		AttributeID: ua.AttributeIDValue,
		Value: &ua.DataValue{
			EncodingMask: ua.DataValueValue,
			Value:        value,
		},
	}, nil
}
