// Package graphql связывает SDL с операциями service через graph-gophers/graphql-go.
package graphql

import (
	_ "embed"

	"github.com/ButyrinIA/socialgraph/internal/service"
	gql "github.com/graph-gophers/graphql-go"
	gqllog "github.com/graph-gophers/graphql-go/log"
	"github.com/pkg/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

//go:embed schema.graphqls
var sdl string

var _ gqllog.Logger = panicLogger{}

// SDL возвращает текст схемы
func SDL() string {
	return sdl
}

// LoadSchema разбирает SDL в ast gqlparser для валидации документов
// подписок до исполнения
func LoadSchema() (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: sdl})
	if err != nil {
		return nil, errors.Wrap(err, "невалидная схема")
	}
	return schema, nil
}

type Options struct {
	MaxDepth int
	Logger   *zap.Logger
	Errors   ErrorRecorder
}

// NewSchema разбирает SDL и привязывает к нему корневой резолвер
func NewSchema(svc *service.Service, broker *Broker, opts Options) (*gql.Schema, error) {
	root := NewResolver(svc, broker, opts.Logger, opts.Errors)

	schemaOpts := []gql.SchemaOpt{
		gql.UseFieldResolvers(),
		gql.Logger(panicLogger{log: root.log}),
	}
	if opts.MaxDepth > 0 {
		schemaOpts = append(schemaOpts, gql.MaxDepth(opts.MaxDepth))
	}
	schema, err := gql.ParseSchema(sdl, root, schemaOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "разбор схемы")
	}
	return schema, nil
}
