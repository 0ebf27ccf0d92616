package service

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	orderNumberPattern = regexp.MustCompile(`^\d{3}-\d{7}-\d{7}$`)
	secretCodePattern  = regexp.MustCompile(`^\d{15,17}$`)
)

// 订单标识类型
const (
	IdentifierKindOrderNumber = "order_number"
	IdentifierKindSecretCode  = "secret_code"
)

// OrderIdentifier 规范化后的订单标识
type OrderIdentifier struct {
	Kind  string
	Value string
}

// ParseIdentifier 解析客户输入的平台订单号或内部兑换码
func ParseIdentifier(raw string) (OrderIdentifier, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if compact == "" {
		return OrderIdentifier{}, ErrIdentifierInvalid
	}
	if orderNumberPattern.MatchString(compact) {
		return OrderIdentifier{Kind: IdentifierKindOrderNumber, Value: compact}, nil
	}
	digits := strings.ReplaceAll(compact, "-", "")
	if secretCodePattern.MatchString(digits) {
		return OrderIdentifier{Kind: IdentifierKindSecretCode, Value: digits}, nil
	}
	return OrderIdentifier{}, ErrIdentifierInvalid
}
