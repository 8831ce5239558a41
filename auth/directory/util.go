package directory

import (
	"fmt"

	"matrix-shared-secret-auth/auth/configuration"
)

func getStringFromConfig(config configuration.AccountDirectory, key string) (string, error) {
	value, exists := config[key]
	if !exists {
		return "", fmt.Errorf("Missing %s", key)
	}

	valueString, ok := value.(string)
	if !ok || valueString == "" {
		return "", fmt.Errorf("%s needs to be a non-empty string", key)
	}

	return valueString, nil
}

// getIntFromConfig returns a number from the config, or the default value if it's missing.
// Numbers decoded from JSON are float64, while those constructed in code are likely int.
func getIntFromConfig(config configuration.AccountDirectory, key string, defaultValue int) (int, error) {
	value, exists := config[key]
	if !exists {
		return defaultValue, nil
	}

	switch number := value.(type) {
	case int:
		return number, nil
	case float64:
		return int(number), nil
	}

	return 0, fmt.Errorf("%s needs to be a number", key)
}

func getBoolFromConfig(config configuration.AccountDirectory, key string, defaultValue bool) (bool, error) {
	value, exists := config[key]
	if !exists {
		return defaultValue, nil
	}

	valueBool, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s needs to be a boolean", key)
	}

	return valueBool, nil
}
