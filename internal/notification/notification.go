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

package notification

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/internal/request"
)

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func buildSlackMessage(systemError error, at time.Time) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: "Error From TradeDesk 🐞", Emoji: true}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Error:*\n%v", systemError)}}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("*Time:*\n%v", at.Format(time.RFC822))}}},
	}}
}

// SlackNotification posts systemError to the configured Slack webhook.
func SlackNotification(webhookURL string, systemError error) error {
	payload, err := request.ToJsonReq(buildSlackMessage(systemError, time.Now()))
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, webhookURL, payload)
	if err != nil {
		return err
	}

	_, err = request.Call(req, nil)
	return err
}

// NotifyError logs an operational error and forwards it to Slack when a
// webhook is configured. It never blocks the caller.
func NotifyError(systemError error) {
	if systemError == nil {
		return
	}
	logrus.Error(systemError)

	conf, err := config.Fetch()
	if err != nil || conf.Notification.Slack.WebhookUrl == "" {
		return
	}

	go func(url string) {
		if err := SlackNotification(url, systemError); err != nil {
			logrus.WithError(err).Warn("failed to send slack notification")
		}
	}(conf.Notification.Slack.WebhookUrl)
}
