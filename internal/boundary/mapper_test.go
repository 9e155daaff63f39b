package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPaths = []string{
	"src/Controllers/OrderController.cs",
	"src/Models/Order.cs",
	"src/Models/Customer.cs",
	"src/Services/PaymentService.cs",
	"src/Utils/Logging.cs",
	"README.md",
}

var testContents = map[string]string{
	"src/Controllers/OrderController.cs": "public class OrderController { }",
	"src/Models/Order.cs":                "public class Order { }",
	"src/Models/Customer.cs":             "public class Customer { }",
	"src/Services/PaymentService.cs":     "public class PaymentService { private Order order; }",
	"src/Utils/Logging.cs":               "public static class Logging { }",
	"README.md":                          "# Shop",
}

func TestMapFilesEntityPathMatch(t *testing.T) {
	m := NewMapper(nil)
	b := ServiceBoundary{Name: "Orders", Entities: []string{"Order"}}
	files := m.MapFiles(b, testPaths, testContents)

	assert.Contains(t, files, "src/Models/Order.cs")
	assert.Contains(t, files, "src/Controllers/OrderController.cs")
	// Claimed through the content heuristic: the path never mentions the
	// entity but the source does.
	assert.Contains(t, files, "src/Services/PaymentService.cs")
	assert.NotContains(t, files, "README.md")
}

func TestMapFilesBoundaryNameTokens(t *testing.T) {
	m := NewMapper(nil)
	b := ServiceBoundary{Name: "Payment Processing"}
	files := m.MapFiles(b, testPaths, testContents)

	assert.Equal(t, []string{"src/Services/PaymentService.cs"}, files)
}

func TestMapFilesResponsibilityWords(t *testing.T) {
	m := NewMapper(nil)
	b := ServiceBoundary{
		Name:             "Ops",
		Responsibilities: []string{"Centralized logging and diagnostics"},
	}
	files := m.MapFiles(b, testPaths, testContents)

	assert.Equal(t, []string{"src/Utils/Logging.cs"}, files)
}

func TestMapFilesDeterministicAndIdempotent(t *testing.T) {
	m := NewMapper(nil)
	b := ServiceBoundary{Name: "Orders", Entities: []string{"Order", "Customer"}}

	first := m.MapFiles(b, testPaths, testContents)
	second := m.MapFiles(b, testPaths, testContents)
	assert.Equal(t, first, second)

	// Remapping an already-mapped boundary changes nothing.
	b.Files = first
	third := m.MapFiles(b, testPaths, testContents)
	assert.Equal(t, first, third)
}

func TestFilesMayBelongToMultipleBoundaries(t *testing.T) {
	m := NewMapper(nil)
	orders := ServiceBoundary{Name: "Orders", Entities: []string{"Order"}}
	payments := ServiceBoundary{Name: "Payments", Entities: []string{"Payment"}}

	mapped := m.MapAll([]ServiceBoundary{orders, payments}, testPaths, testContents)
	assert.Contains(t, mapped[0].Files, "src/Services/PaymentService.cs")
	assert.Contains(t, mapped[1].Files, "src/Services/PaymentService.cs")
}

func TestEnsureCompleteCoverageAppendsCatchAll(t *testing.T) {
	m := NewMapper(nil)
	boundaries := []ServiceBoundary{
		{Name: "Orders", Files: []string{"src/Models/Order.cs"}},
	}

	out := m.EnsureCompleteCoverage(boundaries, testPaths)
	require.Len(t, out, 2)

	catchAll := out[1]
	assert.True(t, catchAll.IsCatchAll())
	assert.Equal(t, CatchAllName, catchAll.Name)

	covered := make(map[string]bool)
	for _, b := range out {
		for _, f := range b.Files {
			covered[f] = true
		}
	}
	for _, p := range testPaths {
		assert.True(t, covered[p], "path %s must be covered", p)
	}
	assert.NotContains(t, catchAll.Files, "src/Models/Order.cs")
}

func TestEnsureCompleteCoverageNoGapNoCatchAll(t *testing.T) {
	m := NewMapper(nil)
	boundaries := []ServiceBoundary{{Name: "All", Files: testPaths}}

	out := m.EnsureCompleteCoverage(boundaries, testPaths)
	require.Len(t, out, 1)
	assert.False(t, out[0].IsCatchAll())
}

func TestEnsureCompleteCoverageEmptyBoundaryList(t *testing.T) {
	m := NewMapper(nil)
	out := m.EnsureCompleteCoverage(nil, testPaths)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsCatchAll())
	assert.Len(t, out[0].Files, len(testPaths))
}
