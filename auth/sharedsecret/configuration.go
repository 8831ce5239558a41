package sharedsecret

import (
	"fmt"

	"github.com/Jeffail/gabs"
)

const (
	ConfigKeySharedSecret     = "sharedSecret"
	ConfigKeyAllowList        = "allowList"
	ConfigKeyAllowListEnabled = "allowListEnabled"

	// ConfigKeySharedWhitelist is the legacy name for ConfigKeyAllowList.
	// It is only consulted when ConfigKeyAllowList is absent.
	ConfigKeySharedWhitelist = "sharedWhitelist"
)

// ConfigurationError is returned when the authenticator configuration cannot be used.
// It is a startup-time error: an authenticator is never constructed from a bad configuration.
type ConfigurationError struct {
	MissingField string
	Reason       string
}

func (me *ConfigurationError) Error() string {
	if me.Reason == "" {
		return fmt.Sprintf("Missing %s parameter for the shared secret authenticator", me.MissingField)
	}
	return fmt.Sprintf("Bad %s parameter for the shared secret authenticator: %s", me.MissingField, me.Reason)
}

// Configuration is the validated, read-only configuration of an Authenticator.
// Nothing mutates it after ValidateConfig returns, so it may be shared by any number of goroutines.
//
// The zero value has an enabled allow-list gate with no entries and no secret, so it rejects everyone.
type Configuration struct {
	sharedSecret      secret
	allowListDisabled bool
	allowList         *AllowList
}

// SharedSecret returns the HMAC key. It must never be logged.
func (me *Configuration) SharedSecret() string {
	return string(me.sharedSecret)
}

func (me *Configuration) AllowListEnabled() bool {
	return !me.allowListDisabled
}

// AllowList never returns nil. A missing allow-list is an empty one.
func (me *Configuration) AllowList() *AllowList {
	if me.allowList == nil {
		return &AllowList{}
	}
	return me.allowList
}

// IsAllowed tells if the user id passes the allow-list gate (always true when the gate is disabled).
func (me *Configuration) IsAllowed(userId string) bool {
	if me.allowListDisabled {
		return true
	}
	return me.AllowList().IsAllowed(userId)
}

// String is what fmt uses for the whole configuration.
// Its fields are unexported, so fmt would otherwise print the secret without consulting its String method.
func (me Configuration) String() string {
	return fmt.Sprintf(
		"{sharedSecret:%s allowListEnabled:%t allowList:%v}",
		me.sharedSecret,
		me.AllowListEnabled(),
		me.AllowList().Patterns(),
	)
}

func (me Configuration) GoString() string {
	return fmt.Sprintf("sharedsecret.Configuration%s", me.String())
}

// secret keeps the shared secret from leaking through fmt verbs or JSON encoding.
type secret string

func (me secret) String() string {
	return "[redacted]"
}

func (me secret) GoString() string {
	return `"[redacted]"`
}

func (me secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[redacted]"`), nil
}

// ValidateConfig turns a raw configuration mapping (as decoded from JSON or YAML) into a Configuration.
func ValidateConfig(raw map[string]interface{}) (*Configuration, error) {
	container, err := gabs.Consume(raw)
	if err != nil {
		return nil, &ConfigurationError{MissingField: ConfigKeySharedSecret, Reason: err.Error()}
	}

	sharedSecretObj := container.Search(ConfigKeySharedSecret).Data()
	if sharedSecretObj == nil {
		return nil, &ConfigurationError{MissingField: ConfigKeySharedSecret}
	}
	sharedSecret, ok := sharedSecretObj.(string)
	if !ok {
		return nil, &ConfigurationError{MissingField: ConfigKeySharedSecret, Reason: "not a string"}
	}
	if sharedSecret == "" {
		return nil, &ConfigurationError{MissingField: ConfigKeySharedSecret, Reason: "empty"}
	}

	allowListEnabled := true
	if enabledObj := container.Search(ConfigKeyAllowListEnabled).Data(); enabledObj != nil {
		enabled, ok := enabledObj.(bool)
		if !ok {
			return nil, &ConfigurationError{MissingField: ConfigKeyAllowListEnabled, Reason: "not a boolean"}
		}
		allowListEnabled = enabled
	}

	configuration := &Configuration{
		sharedSecret:      secret(sharedSecret),
		allowListDisabled: !allowListEnabled,
		allowList:         &AllowList{},
	}

	if !allowListEnabled {
		return configuration, nil
	}

	allowListKey := ConfigKeyAllowList
	if !container.Exists(allowListKey) {
		allowListKey = ConfigKeySharedWhitelist
	}
	if !container.Exists(allowListKey) {
		return nil, &ConfigurationError{MissingField: ConfigKeyAllowList}
	}

	patterns, err := stringListFromContainer(container.Search(allowListKey))
	if err != nil {
		return nil, &ConfigurationError{MissingField: allowListKey, Reason: err.Error()}
	}

	allowList, err := NewAllowList(patterns)
	if err != nil {
		return nil, &ConfigurationError{MissingField: allowListKey, Reason: err.Error()}
	}
	configuration.allowList = allowList

	return configuration, nil
}

func stringListFromContainer(container *gabs.Container) ([]string, error) {
	switch list := container.Data().(type) {
	case []string:
		return append([]string{}, list...), nil
	case []interface{}:
		values := make([]string, 0, len(list))
		for idx, item := range list {
			value, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry #%d is not a string", idx)
			}
			values = append(values, value)
		}
		return values, nil
	}

	return nil, fmt.Errorf("not a list")
}
