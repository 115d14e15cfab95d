// Package pricing computes monthly cost estimates for catalog components.
package pricing

import (
	"encoding/json"
	"math"

	"github.com/cloudcanvas/backend/internal/catalog"
	"github.com/cloudcanvas/backend/internal/models"
)

// Model identifies the pricing formula applied to a component.
type Model string

const (
	// ModelRequestGateway prices by request volume only.
	ModelRequestGateway Model = "request_gateway"
	// ModelFunctionCompute prices by request volume plus compute time.
	ModelFunctionCompute Model = "function_compute"
	// ModelVMInstance prices by instance hours.
	ModelVMInstance Model = "vm_instance"
	// ModelObjectStorage prices by stored data, requests and egress.
	ModelObjectStorage Model = "object_storage"
	// ModelManagedDatabase prices by instance hours plus stored data.
	ModelManagedDatabase Model = "managed_database"
)

// modelByComponent maps catalog component IDs to their pricing model.
// Components absent from this table price at zero.
var modelByComponent = map[string]Model{
	"aws-api-gateway":     ModelRequestGateway,
	"aws-lambda":          ModelFunctionCompute,
	"aws-ec2":             ModelVMInstance,
	"aws-s3":              ModelObjectStorage,
	"aws-rds":             ModelManagedDatabase,
	"gcp-cloud-functions": ModelFunctionCompute,
	"gcp-compute-engine":  ModelVMInstance,
	"gcp-cloud-storage":   ModelObjectStorage,
	"gcp-cloud-sql":       ModelManagedDatabase,
	"azure-functions":     ModelFunctionCompute,
	"azure-vm":            ModelVMInstance,
	"azure-blob-storage":  ModelObjectStorage,
	"azure-sql-database":  ModelManagedDatabase,
}

type formula func(config map[string]any, rates map[string]float64) float64

// formulas is the closed set of supported pricing models. Adding a model
// means adding an entry here and mapping component IDs to it above.
var formulas = map[Model]formula{
	ModelRequestGateway:  requestGatewayCost,
	ModelFunctionCompute: functionComputeCost,
	ModelVMInstance:      vmInstanceCost,
	ModelObjectStorage:   objectStorageCost,
	ModelManagedDatabase: managedDatabaseCost,
}

func requestGatewayCost(config map[string]any, rates map[string]float64) float64 {
	requests := num(config, "requestsPerMonth")
	return requests / 1_000_000 * rates["perMillionRequests"]
}

func functionComputeCost(config map[string]any, rates map[string]float64) float64 {
	requests := num(config, "requestsPerMonth")
	memoryMB := num(config, "memoryMB")
	executionMs := num(config, "executionTimeMs")

	requestCost := requests / 1_000_000 * rates["perMillionRequests"]
	computeCost := requests * (memoryMB / 1024) * executionMs / 3600 * rates["perGBSecond"]
	return requestCost + computeCost
}

func vmInstanceCost(config map[string]any, rates map[string]float64) float64 {
	hours := num(config, "hoursPerMonth")
	// Unknown instance types price at zero.
	rate := rates[str(config, "instanceType")]
	return hours * rate
}

func objectStorageCost(config map[string]any, rates map[string]float64) float64 {
	storageGB := num(config, "storageGB")
	requests := num(config, "requestsPerMonth")
	transferGB := num(config, "dataTransferGB")

	return storageGB*rates["perGBStorage"] +
		requests/1000*rates["per1000Requests"] +
		transferGB*rates["perGBTransfer"]
}

func managedDatabaseCost(config map[string]any, rates map[string]float64) float64 {
	hours := num(config, "hoursPerMonth")
	storageGB := num(config, "storageGB")
	rate := rates[str(config, "instanceType")]
	return hours*rate + storageGB*rates["perGBStorage"]
}

// BreakdownEntry is the itemized cost of a single node.
type BreakdownEntry struct {
	NodeID        string  `json:"nodeId"`
	ComponentName string  `json:"componentName"`
	Cost          float64 `json:"cost"`
}

// Estimate is the aggregated cost of a list of nodes.
type Estimate struct {
	TotalCost float64          `json:"total_cost"`
	Breakdown []BreakdownEntry `json:"breakdown"`
}

// Calculator prices nodes against a component catalog.
type Calculator struct {
	catalog *catalog.Catalog
}

// NewCalculator creates a calculator backed by the given catalog.
func NewCalculator(c *catalog.Catalog) *Calculator {
	return &Calculator{catalog: c}
}

// NodeCost computes the monthly cost of one component with the given
// configuration overrides merged over the component's defaults. Unknown
// components and unknown pricing models cost zero.
func (c *Calculator) NodeCost(componentID string, overrides map[string]any) float64 {
	comp, ok := c.catalog.ByID(componentID)
	if !ok {
		return 0
	}

	model, ok := modelByComponent[componentID]
	if !ok {
		return 0
	}
	fn, ok := formulas[model]
	if !ok {
		return 0
	}

	return round2(fn(merge(comp.Config, overrides), comp.Pricing))
}

// TotalCost aggregates per-node costs into a total and an itemized breakdown
// ordered by input node order. It never fails: malformed or missing fields
// are treated as zero-valued, and unresolvable component IDs are used as the
// display name.
func (c *Calculator) TotalCost(nodes []models.Node) Estimate {
	breakdown := make([]BreakdownEntry, 0, len(nodes))
	var total float64

	for _, node := range nodes {
		cost := c.NodeCost(node.ComponentID, node.ConfigOverrides)

		name := node.ComponentID
		if comp, ok := c.catalog.ByID(node.ComponentID); ok {
			name = comp.Name
		}

		breakdown = append(breakdown, BreakdownEntry{
			NodeID:        node.NodeID,
			ComponentName: name,
			Cost:          cost,
		})
		total += cost
	}

	return Estimate{
		TotalCost: round2(total),
		Breakdown: breakdown,
	}
}

// merge overlays overrides on top of defaults. Overriding values replace
// defaults wholesale; there is no deep merge.
func merge(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// num extracts a numeric config value, tolerating the types a JSON decode or
// caller-constructed map may carry. Anything else counts as zero.
func num(config map[string]any, key string) float64 {
	switch v := config[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func str(config map[string]any, key string) string {
	s, _ := config[key].(string)
	return s
}
