package report

// commodityCatalog lists the stat names the platform serves for each
// related entity type. Commodity fields are batched into one stats
// call per related type, keyed by membership here. Names are case
// sensitive on the platform side.
var commodityCatalog = map[string][]string{
	"Cluster": {
		"CPUHeadroom",
		"MemHeadroom",
		"numContainers",
		"numHosts",
		"numStorages",
		"numVDCs",
		"numVMs",
		"StorageHeadroom",
	},
	"PhysicalMachine": {
		"Ballooning",
		"CPU",
		"CPUAllocation",
		"CPUProvisioned",
		"HOST_LUN_ACCESS",
		"IOThroughput",
		"Mem",
		"MemAllocation",
		"MemProvisioned",
		"numCPUs",
		"numSockets",
		"NetThroughput",
		"Q1VCPU",
		"Q2VCPU",
		"Q4VCPU",
		"Q8VCPU",
		"Q16VCPU",
		"Q32VCPU",
		"Swapping",
	},
	"Storage": {
		"StorageAccess",
		"StorageAmount",
		"StorageLatency",
		"StorageProvisioned",
	},
	"VirtualMachine": {
		"numVCPUs",
		"VCPU",
		"VMem",
		"VStorage",
	},
}

// commodityTypes fixes the iteration order over the catalog so runs
// are deterministic.
var commodityTypes = []string{"Cluster", "PhysicalMachine", "Storage", "VirtualMachine"}

// templateCatalog lists template resource names per resource category.
var templateCatalog = map[string][]string{
	"computeResources": {
		"cpuConsumedFactor",
		"cpuSpeed",
		"ioThroughput",
		"memoryConsumedFactor",
		"memorySize",
		"networkThroughput",
		"numOfCpu",
	},
	"infrastructureResources": {
		"coolingSize",
		"powerSize",
		"spaceSize",
	},
	"storageResources": {
		"diskConsumedFactor",
		"diskIops",
		"diskSize",
	},
}

// templateCategories fixes the iteration order over templateCatalog.
var templateCategories = []string{"computeResources", "infrastructureResources", "storageResources"}

func inCatalog(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
