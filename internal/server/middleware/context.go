package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/doctrace/citegraph/pkg/store"
)

type AppUser struct {
	UserID      int64
	Role        string
	Permissions []string
}

type App struct {
	DBConn         *pgxpool.Pool
	Queue          *amqp091.Channel
	Key            *keyfunc.Keyfunc
	S3             *s3.Client
	Store          store.GraphStore
	MasterAPIKey   string
	MasterUserID   int64
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	key *keyfunc.Keyfunc,
	s3 *s3.Client,
	graphStore store.GraphStore,
	masterAPIKey string,
	masterUserID int64,
	masterUserRole string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				DBConn:         db,
				Queue:          queue,
				Key:            key,
				S3:             s3,
				Store:          graphStore,
				MasterAPIKey:   masterAPIKey,
				MasterUserID:   masterUserID,
				MasterUserRole: masterUserRole,
			}
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
