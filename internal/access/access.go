// Package access реализует проверку ключа доступа: сравнение предъявленного
// токена с ключом пользователя. Это не система аутентификации.
package access

import (
	"crypto/subtle"

	"github.com/ButyrinIA/socialgraph/internal/apperr"
)

// Relation - требуемое отношение между вызывающим и данными
type Relation int

const (
	// Public - проверка не выполняется
	Public Relation = iota
	// Present - токен должен быть непустым, валидность не проверяется
	Present
	// Owner - токен должен совпадать с ключом владельца
	Owner
	// Demo - токен должен совпадать с демонстрационной константой
	Demo
)

func (r Relation) String() string {
	switch r {
	case Public:
		return "public"
	case Present:
		return "present"
	case Owner:
		return "owner"
	case Demo:
		return "demo"
	}
	return "unknown"
}

// Check сравнивает предъявленный токен с требуемым. Регистр учитывается.
func Check(presented, required string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(required)) == 1
}

type Policy struct {
	demoToken        string
	strictUserLookup bool
}

func NewPolicy(demoToken string, strictUserLookup bool) *Policy {
	return &Policy{demoToken: demoToken, strictUserLookup: strictUserLookup}
}

// CheckConstant сравнивает токен с демонстрационным значением из конфигурации.
// Пустое значение в конфигурации запрещает доступ всем.
func (p *Policy) CheckConstant(presented string) bool {
	if p.demoToken == "" || presented == "" {
		return false
	}
	return Check(presented, p.demoToken)
}

// StrictUserLookup - требовать совпадения ключа при запросе user(id)
func (p *Policy) StrictUserLookup() bool {
	return p.strictUserLookup
}

// Authorize - единая точка проверки доступа для всех резолверов и мутаций
func (p *Policy) Authorize(presented, required string, rel Relation) error {
	switch rel {
	case Public:
		return nil
	case Present:
		if presented == "" {
			return apperr.AuthorizationDenied("access denied: missing access key")
		}
		return nil
	case Owner:
		if presented == "" {
			return apperr.AuthorizationDenied("access denied: missing access key")
		}
		if !Check(presented, required) {
			return apperr.AuthorizationDenied("access denied")
		}
		return nil
	case Demo:
		if presented == "" {
			return apperr.AuthorizationDenied("access denied: missing access key")
		}
		if !p.CheckConstant(presented) {
			return apperr.AuthorizationDenied("access denied: invalid access key")
		}
		return nil
	}
	return apperr.AuthorizationDenied("access denied: unknown relation %s", rel)
}
