// Package opcua hosts the SawMill folder tree on an OPC UA server and
// exposes its variable nodes as a telemetry sink.
package opcua

import (
	"time"

	ua "github.com/awcullen/opcua/ua"
	"github.com/awcullen/opcua/server"
	"github.com/pkg/errors"

	"sawmill/internal/points"
)

// Anonymous clients may browse, read and write every SawMill node.
var anonymousReadWrite = []ua.RolePermissionType{
	{
		RoleID:      ua.ObjectIDWellKnownRoleAnonymous,
		Permissions: ua.PermissionTypeBrowse | ua.PermissionTypeRead | ua.PermissionTypeWrite | ua.PermissionTypeReadRolePermissions,
	},
}

// AddressSpace is the SawMill folder tree before it is added to a server.
type AddressSpace struct {
	Nodes     []server.Node
	Variables map[string]*server.VariableNode
	NodeIDs   map[string]ua.NodeID
}

// NodeID is the string node identifier of a point in namespace ns.
func NodeID(ns uint16, d points.Definition) ua.NodeID {
	return ua.NewNodeIDString(ns, d.Path())
}

func dataType(k points.Kind) (ua.NodeID, error) {
	switch k {
	case points.KindBool:
		return ua.DataTypeIDBoolean, nil
	case points.KindDouble:
		return ua.DataTypeIDDouble, nil
	case points.KindInt32:
		return ua.DataTypeIDInt32, nil
	default:
		return nil, errors.Errorf("unsupported point kind %s", k)
	}
}

func folder(id ua.NodeID, ns uint16, name string, parent ua.NodeID) *server.ObjectNode {
	return server.NewObjectNode(
		id,
		ua.NewQualifiedName(ns, name),
		ua.NewLocalizedText(name, ""),
		ua.NewLocalizedText("", ""),
		anonymousReadWrite,
		[]ua.Reference{
			ua.NewReference(ua.ReferenceTypeIDHasTypeDefinition, false, ua.NewExpandedNodeID(ua.ObjectTypeIDFolderType)),
			ua.NewReference(ua.ReferenceTypeIDOrganizes, true, ua.NewExpandedNodeID(parent)),
		},
		byte(0),
	)
}

// BuildAddressSpace creates Objects/SawMill, one folder per group in use and
// one read/write variable per point, each holding the point's seed.
func BuildAddressSpace(ns uint16, reg *points.Registry) (*AddressSpace, error) {
	as := &AddressSpace{
		Variables: make(map[string]*server.VariableNode),
		NodeIDs:   make(map[string]ua.NodeID),
	}

	rootID := ua.NewNodeIDString(ns, points.ROOT_FOLDER)
	as.Nodes = append(as.Nodes, folder(rootID, ns, points.ROOT_FOLDER, ua.ObjectIDObjectsFolder))

	now := time.Now()
	for _, g := range reg.Groups() {
		groupID := ua.NewNodeIDString(ns, points.ROOT_FOLDER+"/"+string(g))
		as.Nodes = append(as.Nodes, folder(groupID, ns, string(g), rootID))

		for _, d := range reg.InGroup(g) {
			dt, err := dataType(d.Kind)
			if err != nil {
				return nil, errors.Wrapf(err, "point %s", d.Name)
			}

			id := NodeID(ns, d)
			v := server.NewVariableNode(
				id,
				ua.NewQualifiedName(ns, d.BrowseName),
				ua.NewLocalizedText(d.BrowseName, ""),
				ua.NewLocalizedText("", ""),
				anonymousReadWrite,
				[]ua.Reference{
					ua.NewReference(ua.ReferenceTypeIDHasTypeDefinition, false, ua.NewExpandedNodeID(ua.VariableTypeIDBaseDataVariableType)),
					ua.NewReference(ua.ReferenceTypeIDHasComponent, true, ua.NewExpandedNodeID(groupID)),
				},
				ua.NewDataValue(d.Seed, 0, now, 0, now, 0),
				dt,
				ua.ValueRankScalar,
				[]uint32{},
				ua.AccessLevelsCurrentRead|ua.AccessLevelsCurrentWrite,
				125,
				false,
			)
			as.Nodes = append(as.Nodes, v)
			as.Variables[d.Name] = v
			as.NodeIDs[d.Name] = id
		}
	}

	return as, nil
}
