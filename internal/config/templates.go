package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "capsule":
		return capsuleTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Validate loads path as the given kind.
func Validate(path, kind string) error {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		_, err := LoadServerConfig(path)
		return err
	case "capsule":
		_, err := LoadCapsuleConfig(path)
		return err
	default:
		return fmt.Errorf("unknown config kind: %s", kind)
	}
}

const serverTemplate = `host = "127.0.0.1"
port = 1965
cert_file = "cert.pem"
key_file = "key.pem"
root_path = ""
request_timeout = "10s"
admin_listen_addr = "127.0.0.1:9165"
admin_cors_origins = ["http://localhost:3000"]
admin_token = ""
capsule_config_path = "capsule.toml"
`

const capsuleTemplate = `title = "gemctl"
greeting = "This is a simple Gemini server written in Go."

[[pages]]
path = "/about$"
body = "# About\n\nServed from capsule.toml."

[[pages]]
path = "/old$"
status = 31
meta = "/about"
`
