package service

import (
	"strings"
	"unicode"
)

const (
	installationIDLength    = 63
	installationBlockCount  = 9
	installationBlockLength = 7
	confirmationIDLength    = 48
	confirmationBlockLength = 6
)

// NormalizeInstallationID 规范化安装 ID：支持 9 段输入或整串输入，结果必须为 63 位数字
func NormalizeInstallationID(raw string, blocks []string) (string, error) {
	var joined string
	if len(blocks) > 0 {
		value, err := JoinInstallationBlocks(blocks)
		if err != nil {
			return "", err
		}
		joined = value
	} else {
		joined = digitsOnly(raw)
	}
	if len(joined) != installationIDLength {
		return "", ErrInstallationIDInvalid
	}
	return joined, nil
}

// JoinInstallationBlocks 拼接 9 段安装 ID，前 8 段必须各为 7 位
func JoinInstallationBlocks(blocks []string) (string, error) {
	if len(blocks) != installationBlockCount {
		return "", ErrInstallationIDInvalid
	}
	var b strings.Builder
	for idx, block := range blocks {
		digits := digitsOnly(block)
		if idx < installationBlockCount-1 && len(digits) != installationBlockLength {
			return "", ErrInstallationIDInvalid
		}
		if digits == "" {
			return "", ErrInstallationIDInvalid
		}
		b.WriteString(digits)
	}
	return b.String(), nil
}

// FormatConfirmationID 将 48 位确认 ID 切分为 8 段展示
func FormatConfirmationID(cid string) []string {
	digits := digitsOnly(cid)
	if len(digits) != confirmationIDLength {
		return nil
	}
	blocks := make([]string, 0, confirmationIDLength/confirmationBlockLength)
	for i := 0; i < len(digits); i += confirmationBlockLength {
		blocks = append(blocks, digits[i:i+confirmationBlockLength])
	}
	return blocks
}

func digitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, value)
}
