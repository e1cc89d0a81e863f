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

package tradedesk

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tradedesk/config"
	redis_db "github.com/blnkfinance/tradedesk/internal/redis-db"
	"github.com/blnkfinance/tradedesk/model"
)

// Queue wraps the asynq client used to hand work to `tradedesk workers`.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
	name      string
	maxRetry  int
}

// NewQueue connects to the Redis instance configured under redis.dns.
func NewQueue(conf *config.Configuration) (*Queue, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	return &Queue{
		Client:    asynq.NewClient(queueOptions),
		Inspector: asynq.NewInspector(queueOptions),
		name:      conf.Queue.NotificationQueue,
		maxRetry:  conf.Queue.MaxRetryAttempts,
	}, nil
}

// EnqueueNotification queues n for the notification worker. The notification
// ID doubles as the task ID, so a notification is queued at most once. A
// notification whose earlier task was archived after exhausting its retries is
// put back on the queue.
func (q *Queue) EnqueueNotification(ctx context.Context, n model.Notification) error {
	ctx, span := tracer.Start(ctx, "Adding Notification To Redis Queue")
	defer span.End()

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	task := asynq.NewTask(q.name, payload)
	info, err := q.Client.EnqueueContext(ctx, task,
		asynq.TaskID(n.NotificationID),
		asynq.Queue(q.name),
		asynq.MaxRetry(q.maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return q.requeueArchived(n.NotificationID)
	}
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"task_id": info.ID,
		"queue":   info.Queue,
		"user_id": n.UserID,
	}).Debug("notification queued")
	return nil
}

func (q *Queue) requeueArchived(taskID string) error {
	info, err := q.Inspector.GetTaskInfo(q.name, taskID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) {
			return nil
		}
		return err
	}

	fields := logrus.Fields{"task_id": info.ID, "queue": info.Queue, "state": info.State.String()}
	if info.State != asynq.TaskStateArchived {
		logrus.WithFields(fields).Debug("notification already queued")
		return nil
	}
	if err := q.Inspector.RunTask(q.name, taskID); err != nil {
		return err
	}
	logrus.WithFields(fields).Info("archived notification requeued")
	return nil
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		return err
	}
	return q.Client.Close()
}
