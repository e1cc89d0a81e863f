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
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/tradedesk"
	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/database"
	"github.com/blnkfinance/tradedesk/internal/cache"
	"github.com/blnkfinance/tradedesk/internal/notification"
	redis_db "github.com/blnkfinance/tradedesk/internal/redis-db"
)

// TradeDeskCLI wraps the root cobra command.
type TradeDeskCLI struct {
	cmd *cobra.Command
}

// tradedeskInstance carries what preRun builds for the subcommands.
type tradedeskInstance struct {
	desk       *tradedesk.TradeDesk
	datasource database.IDataSource
	queue      *tradedesk.Queue
	redis      *redis_db.Redis
	cnf        *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration and connects the engine before any
// subcommand runs.
func preRun(app *tradedeskInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}
		app.cnf = cnf

		// migrate and config only need the configuration.
		if cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "migrate") {
			return nil
		}

		if err := setupTradeDesk(app); err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}
		return nil
	}
}

// setupTradeDesk connects PostgreSQL and Redis and builds the engine with the
// read-model cache, the delivery lock and the queued notifier.
func setupTradeDesk(app *tradedeskInstance) error {
	db, err := database.NewDataSource(app.cnf)
	if err != nil {
		return fmt.Errorf("error getting datasource: %v", err)
	}

	rdb, err := redis_db.NewRedisClient(strings.Split(app.cnf.Redis.Dns, ","), app.cnf.Redis.SkipTLSVerify)
	if err != nil {
		return fmt.Errorf("error connecting to redis: %v", err)
	}

	queue, err := tradedesk.NewQueue(app.cnf)
	if err != nil {
		return fmt.Errorf("error creating queue: %v", err)
	}

	desk, err := tradedesk.NewTradeDesk(db,
		tradedesk.WithRedis(rdb.Client()),
		tradedesk.WithCache(cache.NewCache(rdb.Client())),
		tradedesk.WithNotifier(tradedesk.NewQueueNotifier(queue)),
	)
	if err != nil {
		return fmt.Errorf("error creating tradedesk: %v", err)
	}

	app.desk = desk
	app.datasource = db
	app.queue = queue
	app.redis = rdb
	return nil
}

func (app *tradedeskInstance) close() {
	if app.queue != nil {
		if err := app.queue.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close queue")
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close redis")
		}
	}
}

func NewCLI() *TradeDeskCLI {
	var configFile string
	app := &tradedeskInstance{}

	rootCmd := &cobra.Command{
		Use:   "tradedesk",
		Short: "P2P trade escrow service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./tradedesk.json", "Configuration file for tradedesk")
	rootCmd.PersistentPreRunE = preRun(app, &configFile)
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) { app.close() }

	rootCmd.AddCommand(serverCommands(app))
	rootCmd.AddCommand(workerCommands(app))
	rootCmd.AddCommand(migrateCommands(app))
	rootCmd.AddCommand(configCommands())

	return &TradeDeskCLI{cmd: rootCmd}
}

func (c TradeDeskCLI) executeCLI() {
	if err := c.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
