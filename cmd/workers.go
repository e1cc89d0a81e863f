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
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/tradedesk"
	"github.com/blnkfinance/tradedesk/config"
	redis_db "github.com/blnkfinance/tradedesk/internal/redis-db"
)

func initializeWorkerServer(conf *config.Configuration) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:      redisOption.Addr,
			Password:  redisOption.Password,
			DB:        redisOption.DB,
			TLSConfig: redisOption.TLSConfig,
		},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{conf.Queue.NotificationQueue: 1},
		},
	), nil
}

func initializeTaskHandlers(app *tradedeskInstance, mux *asynq.ServeMux) {
	processor := tradedesk.NewNotificationProcessor(app.datasource, app.cnf)
	mux.HandleFunc(app.cnf.Queue.NotificationQueue, processor.ProcessNotification)
}

// workerCommands starts the worker that stores queued notifications and
// forwards them to the configured webhook.
func workerCommands(app *tradedeskInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start tradedesk workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			shutdown, err := initializeObservability(ctx, app.cnf)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error during shutdown: %v", err)
				}
			}()

			srv, err := initializeWorkerServer(app.cnf)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			initializeTaskHandlers(app, mux)

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run server: %v", err)
			}
		},
	}

	return cmd
}
