package main

import "github.com/dd0wney/topomap/pkg/topology"

// demoSnapshot is a small production subscription: two resource groups, a
// virtual network with web and data subnets, and their workloads.
func demoSnapshot() topology.Snapshot {
	node := func(id, name string, kind topology.Kind, parent string, status topology.Status, weight float64) topology.Node {
		return topology.Node{ID: id, Name: name, Kind: kind, ParentGroup: parent, Status: status, Weight: weight}
	}
	contains := func(src, dst string) topology.Edge {
		return topology.Edge{SourceID: src, TargetID: dst, Kind: topology.EdgeContains}
	}
	connects := func(src, dst string) topology.Edge {
		return topology.Edge{SourceID: src, TargetID: dst, Kind: topology.EdgeConnects}
	}

	return topology.Snapshot{
		Revision: "demo",
		Nodes: []topology.Node{
			node("sub-1", "Production Sub", topology.KindSubscription, "root", topology.StatusOK, 20),
			node("rg-core", "RG-Core-US", topology.KindResourceGroup, "sub-1", topology.StatusOK, 15),
			node("vnet-1", "VNet-Primary", topology.KindVirtualNetwork, "rg-core", topology.StatusOK, 12),
			node("subnet-web", "Subnet-Web", topology.KindSubnet, "vnet-1", topology.StatusOK, 8),
			node("subnet-db", "Subnet-DB", topology.KindSubnet, "vnet-1", topology.StatusOK, 8),
			node("vm-web-01", "VM-Web-01", topology.KindVirtualMachine, "subnet-web", topology.StatusRunning, 5),
			node("vm-web-02", "VM-Web-02", topology.KindVirtualMachine, "subnet-web", topology.StatusRunning, 5),
			node("sql-prod", "SQL-Prod-Primary", topology.KindSQLDatabase, "subnet-db", topology.StatusOK, 7),
			node("rg-data", "RG-Data", topology.KindResourceGroup, "sub-1", topology.StatusOK, 15),
			node("st-logs", "stlogs001", topology.KindStorageAccount, "rg-data", topology.StatusOK, 6),
		},
		Edges: []topology.Edge{
			contains("sub-1", "rg-core"),
			contains("sub-1", "rg-data"),
			contains("rg-core", "vnet-1"),
			contains("vnet-1", "subnet-web"),
			contains("vnet-1", "subnet-db"),
			contains("subnet-web", "vm-web-01"),
			contains("subnet-web", "vm-web-02"),
			contains("subnet-db", "sql-prod"),
			connects("vm-web-01", "sql-prod"),
			connects("vm-web-02", "sql-prod"),
			contains("rg-data", "st-logs"),
			connects("vm-web-01", "st-logs"),
		},
	}
}
