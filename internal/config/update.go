package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rileyhilliard/commandcenter/internal/errors"
	"gopkg.in/yaml.v3"
)

// SetGatewayURL rewrites a gateway's url in the config file, preserving the
// rest of the YAML structure and comments. Used when the URL was changed in
// the login form.
func SetGatewayURL(configPath, gatewayName, newURL string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file", "Check the file exists and is readable")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to parse config file", "Check the YAML syntax in "+configPath)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return errors.New(errors.ErrConfig, "Invalid YAML document structure", "")
	}
	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return errors.New(errors.ErrConfig, "Expected mapping at document root", "")
	}

	gatewaysNode := findMapValue(docNode, "gateways")
	if gatewaysNode == nil {
		return errors.New(errors.ErrConfig, "'gateways' key not found in config", "")
	}
	gwNode := findMapValue(gatewaysNode, gatewayName)
	if gwNode == nil || gwNode.Kind != yaml.MappingNode {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Gateway '%s' not found in config", gatewayName), "")
	}

	if urlNode := findMapValue(gwNode, "url"); urlNode != nil {
		if urlNode.Value == newURL {
			return nil
		}
		urlNode.Kind = yaml.ScalarNode
		urlNode.Tag = "!!str"
		urlNode.Value = newURL
	} else {
		gwNode.Content = append(gwNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "url"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: newURL},
		)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write config file", "Check file permissions on "+configPath)
	}
	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
