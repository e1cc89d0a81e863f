/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/blnkfinance/tradedesk/config"
)

// redacted hides secrets before the configuration is printed.
func redacted(cfg config.Configuration) config.Configuration {
	mask := func(s string) string {
		if s == "" {
			return s
		}
		return "****"
	}

	cfg.Server.SecretKey = mask(cfg.Server.SecretKey)
	cfg.Providers.Pix.Secret = mask(cfg.Providers.Pix.Secret)
	cfg.Providers.KYC.Secret = mask(cfg.Providers.KYC.Secret)
	cfg.Providers.Internal.Secret = mask(cfg.Providers.Internal.Secret)

	other := make(map[string]config.ProviderConfig, len(cfg.Providers.Other))
	for name, p := range cfg.Providers.Other {
		other[name] = config.ProviderConfig{Secret: mask(p.Secret)}
	}
	cfg.Providers.Other = other
	return cfg
}

func configCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "config outputs your instance's computed configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Fetch()
			if err != nil {
				log.Fatalf("Error getting config: %v\n", err)
			}

			data, err := json.MarshalIndent(redacted(*cfg), "", "    ")
			if err != nil {
				log.Fatalf("Error printing config: %v\n", err)
			}

			fmt.Println(string(data))
		},
	}
	return cmd
}
