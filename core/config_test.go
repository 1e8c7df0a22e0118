package core

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	conf := configFromViper(newViper(), "TEST")

	assert.Equal(t, "TEST", conf.Env)
	assert.Equal(t, ":4001", conf.Server.Address)
	assert.Equal(t, "postgres", conf.Database.Engine)
	assert.Equal(t, "localhost:5432", conf.Database.Address())
	assert.Equal(t, 10*time.Minute, conf.Redis.LockTTL)
	assert.False(t, conf.Filters.FailFast)
	assert.Empty(t, conf.Filters.Schedule)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("QA_DATABASE_ENGINE", "memory")
	t.Setenv("QA_FILTERS_FAILFAST", "true")
	t.Setenv("QA_FILTERS_SCHEDULE", "@daily")
	t.Setenv("QA_REDIS_LOCKTTL", "30s")

	v := newViper()
	v.SetEnvPrefix("QA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	conf := configFromViper(v, "QA")

	assert.Equal(t, "memory", conf.Database.Engine)
	assert.True(t, conf.Filters.FailFast)
	assert.Equal(t, "@daily", conf.Filters.Schedule)
	assert.Equal(t, 30*time.Second, conf.Redis.LockTTL)
}

func TestConfig_Emails(t *testing.T) {
	conf := &Config{
		AppName: "Rollcall",
		Email:   EmailConfig{DefaultFrom: "Rollcall <noreply@rollcall.test>"},
		Filters: FiltersConfig{ReportRecipients: []string{" principal@rollcall.test ", "not an email", "Head <head@rollcall.test>"}},
	}

	assert.Equal(t, "noreply@rollcall.test", conf.DefaultFromEmail().Address)

	recipients := conf.ReportRecipients()
	if assert.Len(t, recipients, 2) {
		assert.Equal(t, "principal@rollcall.test", recipients[0].Address)
		assert.Equal(t, "Head", recipients[1].Name)
	}

	conf.Email.DefaultFrom = "bare"
	assert.Equal(t, "bare", conf.DefaultFromEmail().Address)
}
