package observability

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

type ruleFile struct {
	Groups []struct {
		Name  string `yaml:"name"`
		Rules []struct {
			Alert       string            `yaml:"alert"`
			Expr        string            `yaml:"expr"`
			For         string            `yaml:"for"`
			Labels      map[string]string `yaml:"labels"`
			Annotations map[string]string `yaml:"annotations"`
		} `yaml:"rules"`
	} `yaml:"groups"`
}

var metricName = regexp.MustCompile(`pos_[a-z_]+`)

func loadRules(t *testing.T) ruleFile {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "pos.yml"))
	require.NoError(t, err)
	var rules ruleFile
	require.NoError(t, yaml.Unmarshal(data, &rules))
	require.Len(t, rules.Groups, 1)
	require.Equal(t, "pos-ledger", rules.Groups[0].Name)
	return rules
}

// registeredFamilies touches every collector so each family shows up in Gather.
func registeredFamilies(t *testing.T) map[string]bool {
	t.Helper()
	m := NewMetrics()
	m.Middleware(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.ObserveLedgerOperation("create_sale", "ok", time.Millisecond)
	m.CashboxEntryAppended(documents.CashboxTransaction{Type: documents.TransactionIncome, Amount: decimal.NewFromInt(1)})
	m.RecordDrift("customer", 0, decimal.Zero)
	m.ObserveJob("ledger:reconcile_scan", "success")

	families, err := m.registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestAlertRulesAreComplete(t *testing.T) {
	severities := map[string]string{
		"LedgerDrift":            "critical",
		"CashboxRejectionsSpike": "warning",
		"LedgerConflictRetries":  "warning",
		"HighErrorRate":          "critical",
		"LedgerJobsExhausted":    "warning",
	}
	rules := loadRules(t).Groups[0].Rules
	require.Len(t, rules, len(severities))

	for _, rule := range rules {
		t.Run(rule.Alert, func(t *testing.T) {
			want, ok := severities[rule.Alert]
			require.True(t, ok, "unexpected rule")
			assert.Equal(t, want, rule.Labels["severity"])
			assert.NotEmpty(t, rule.For)
			assert.NotEmpty(t, rule.Annotations["summary"])
			assert.NotEmpty(t, rule.Annotations["description"])
			assert.Regexp(t, `^docs/runbook-pos\.md#[a-z-]+$`, rule.Annotations["runbook"])
		})
	}
}

func TestAlertRulesReferenceRegisteredMetrics(t *testing.T) {
	families := registeredFamilies(t)
	for _, rule := range loadRules(t).Groups[0].Rules {
		names := metricName.FindAllString(rule.Expr, -1)
		require.NotEmpty(t, names, rule.Alert)
		for _, name := range names {
			assert.True(t, families[name], "%s references unknown metric %s", rule.Alert, name)
		}
	}
}
