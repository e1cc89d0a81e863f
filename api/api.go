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

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/blnkfinance/tradedesk"
	"github.com/blnkfinance/tradedesk/api/middleware"
	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/internal/apierror"
)

type Api struct {
	desk   *tradedesk.TradeDesk
	router *gin.Engine
}

// Router registers the routes. Provider callbacks authenticate with their
// HMAC signature; every other route sits behind the secret key.
func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/webhooks", a.ReceiveWebhook)

	protected := router.Group("/", middleware.SecretKeyAuthMiddleware())
	protected.POST("/transactions", a.CreateTransaction)
	protected.GET("/transactions/:id", a.GetTransaction)
	protected.POST("/transactions/:id/transition", a.TransitionTransaction)
	protected.POST("/transactions/:id/cancel", a.CancelTransaction)
	protected.POST("/transactions/:id/dispute", a.DisputeTransaction)
	protected.POST("/transactions/:id/pix", a.RequestPixPayment)
	protected.POST("/transactions/:id/resolve", a.ResolveDispute)
	return a.router
}

func NewAPI(desk *tradedesk.TradeDesk) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RateLimitMiddleware(conf))
	r.Use(middleware.RequestTimeout(time.Duration(conf.Server.RequestTimeoutSec) * time.Second))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})

	return &Api{desk: desk, router: r}
}

// respondError writes the client-safe error envelope for err.
func respondError(c *gin.Context, err error) {
	status, resp := apierror.Respond(err)
	c.JSON(status, resp)
}

func invalidInput(c *gin.Context, err error) {
	respondError(c, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil))
}
