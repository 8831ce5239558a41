package configuration

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Configuration struct {
	Matrix           Matrix
	Authenticator    Authenticator
	AccountDirectory AccountDirectory
	HttpGateway      HttpGateway
	Misc             Misc
}

type Matrix struct {
	HomeserverDomainName  string
	HomeserverApiEndpoint string
	TimeoutMilliseconds   int
}

// Authenticator is the raw shared secret authenticator configuration
// (`sharedSecret`, `allowList`/`sharedWhitelist`, `allowListEnabled`).
// It gets validated by sharedsecret.ValidateConfig.
type Authenticator map[string]interface{}

// AccountDirectory is the raw configuration of the account directory.
// The `Type` key selects the implementation, the rest is implementation-specific.
type AccountDirectory map[string]interface{}

type HttpGateway struct {
	ListenAddress       string
	TimeoutMilliseconds int

	// IPNetworkWhitelist restricts which source networks can talk to the gateway.
	// A nil value means "private and loopback networks only", while an empty list means "everyone".
	IPNetworkWhitelist *[]string
}

type Misc struct {
	Debug bool
}

// LoadConfiguration reads the configuration from a JSON file (or a YAML file, judging by the extension).
func LoadConfiguration(filePath string) (*Configuration, error) {
	fileBytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("Failed to read configuration from %s: %w", filePath, err)
	}

	extension := strings.ToLower(filepath.Ext(filePath))
	if extension == ".yaml" || extension == ".yml" {
		fileBytes, err = convertYamlToJson(fileBytes)
		if err != nil {
			return nil, fmt.Errorf("Failed to decode YAML: %w", err)
		}
	}

	configuration, err := LoadConfigurationFromJsonBytes(fileBytes)
	if err != nil {
		return nil, err
	}

	return configuration, nil
}

func LoadConfigurationFromJsonBytes(jsonBytes []byte) (*Configuration, error) {
	configuration := Configuration{}
	err := json.Unmarshal(jsonBytes, &configuration)
	if err != nil {
		return nil, fmt.Errorf("Failed to decode JSON: %w", err)
	}

	err = validateConfiguration(&configuration)
	if err != nil {
		return nil, fmt.Errorf("Failed to validate configuration: %w", err)
	}

	return &configuration, nil
}

// convertYamlToJson lets us decode YAML files into the same structs (and with the same field names) as JSON files.
func convertYamlToJson(yamlBytes []byte) ([]byte, error) {
	var document interface{}
	err := yaml.Unmarshal(yamlBytes, &document)
	if err != nil {
		return nil, err
	}

	return json.Marshal(document)
}

func validateConfiguration(configuration *Configuration) error {
	if configuration.Authenticator == nil {
		return fmt.Errorf("Authenticator configuration is missing")
	}

	if configuration.AccountDirectory == nil {
		return fmt.Errorf("AccountDirectory configuration is missing")
	}

	if configuration.Matrix.TimeoutMilliseconds <= 0 {
		return fmt.Errorf("Matrix.TimeoutMilliseconds needs to be a positive number")
	}

	if configuration.HttpGateway.ListenAddress == "" {
		return fmt.Errorf("HttpGateway.ListenAddress needs to be set")
	}

	if configuration.HttpGateway.TimeoutMilliseconds <= 0 {
		return fmt.Errorf("HttpGateway.TimeoutMilliseconds needs to be a positive number")
	}
	if configuration.HttpGateway.TimeoutMilliseconds < configuration.Matrix.TimeoutMilliseconds {
		return fmt.Errorf(
			"HttpGateway.TimeoutMilliseconds (%d) needs to be larger than Matrix.TimeoutMilliseconds (%d)",
			configuration.HttpGateway.TimeoutMilliseconds,
			configuration.Matrix.TimeoutMilliseconds,
		)
	}

	return nil
}
