// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/telosnetwork/tevm-erigon/core/statediff"
	"github.com/telosnetwork/tevm-erigon/eth/ethconfig"
)

func setFlagsFromConfigFile(ctx *cli.Context, filePath string) error {
	fileExtension := filepath.Ext(filePath)

	fileConfig := make(map[string]interface{})

	switch fileExtension {
	case ".yaml", ".yml":
		yamlFile, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(yamlFile, &fileConfig); err != nil {
			return err
		}
	case ".toml":
		tomlFile, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		if err := toml.Unmarshal(tomlFile, &fileConfig); err != nil {
			return err
		}
	default:
		return errors.New("config files only accepted are .yaml and .toml")
	}
	// flags given on the command line win over the file
	for key, value := range fileConfig {
		if ctx.IsSet(key) {
			continue
		}
		if reflect.ValueOf(value).Kind() == reflect.Slice {
			sliceInterface := value.([]interface{})
			s := make([]string, len(sliceInterface))
			for i, v := range sliceInterface {
				s[i] = fmt.Sprintf("%v", v)
			}
			if err := ctx.Set(key, strings.Join(s, ",")); err != nil {
				return fmt.Errorf("failed setting %s flag with values=%s error=%w", key, s, err)
			}
		} else {
			if err := ctx.Set(key, fmt.Sprintf("%v", value)); err != nil {
				return fmt.Errorf("failed setting %s flag with value=%v error=%w", key, value, err)
			}
		}
	}
	return nil
}

// NewConfigUrfave builds the node config from the command line flags.
func NewConfigUrfave(ctx *cli.Context) (*ethconfig.Config, error) {
	cfg := ethconfig.Defaults

	mode, err := statediff.ParseMode(ctx.String(ModeFlag.Name))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ethconfig.ErrInvalidConfig, err)
	}
	cfg.Telos.Mode = mode
	cfg.Telos.NativeDiffsDir = ctx.String(NativeDiffsDirFlag.Name)
	cfg.Telos.GasCacheSeconds = ctx.Uint64(GasCacheSecondsFlag.Name)
	cfg.Telos.Retries = ctx.Uint64(RetriesFlag.Name)

	cfg.DB.InMemory = ctx.Bool(InMemoryFlag.Name)
	cfg.DB.Path = ctx.String(DataDirFlag.Name)
	if err := cfg.DB.MemTableSize.UnmarshalText([]byte(ctx.String(MemTableSizeFlag.Name))); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ethconfig.ErrInvalidConfig, MemTableSizeFlag.Name, err)
	}
	cfg.HeaderCacheSize = ctx.Int(HeaderCacheSizeFlag.Name)

	cfg.Genesis.StartingGasPrice = ctx.String(GenesisGasPriceFlag.Name)
	cfg.Genesis.StartingRevision = ctx.Uint64(GenesisRevisionFlag.Name)
	cfg.MetricsAddr = ctx.String(MetricsAddrFlag.Name)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
