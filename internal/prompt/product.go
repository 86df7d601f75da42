// Package prompt turns product attributes into the compliance prompt payload.
package prompt

import (
	"fmt"
	"strings"

	apierrors "github.com/diogo/compliancegen/internal/errors"
)

// Power is the power supply of a product
type Power string

const (
	PowerNone    Power = "none"
	PowerBattery Power = "battery"
	PowerMains   Power = "mains"
)

// Powers lists the power options in form order
func Powers() []Power {
	return []Power{PowerNone, PowerBattery, PowerMains}
}

// Label returns the display label used in the form and prompt
func (p Power) Label() string {
	switch p {
	case PowerBattery:
		return "含电池"
	case PowerMains:
		return "插电"
	default:
		return "无供电"
	}
}

// Electrical reports whether the product falls under WEEE marking
func (p Power) Electrical() bool {
	return p == PowerBattery || p == PowerMains
}

// ParsePower accepts either the key or the label
func ParsePower(s string) (Power, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PowerNone, nil
	}
	for _, p := range Powers() {
		if strings.EqualFold(s, string(p)) || s == p.Label() {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown power option %q (valid: none, battery, mains)", s)
}

// Target is the intended user group of a product
type Target string

const (
	TargetAdult  Target = "adult"
	TargetChild  Target = "child"
	TargetInfant Target = "infant"
)

// Targets lists the target options in form order
func Targets() []Target {
	return []Target{TargetAdult, TargetChild, TargetInfant}
}

// Label returns the display label used in the form and prompt
func (t Target) Label() string {
	switch t {
	case TargetChild:
		return "儿童 (3-14岁)"
	case TargetInfant:
		return "婴幼儿 (0-3岁)"
	default:
		return "成人"
	}
}

// ParseTarget accepts either the key or the label
func ParseTarget(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TargetAdult, nil
	}
	for _, t := range Targets() {
		if strings.EqualFold(s, string(t)) || s == t.Label() {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown target option %q (valid: adult, child, infant)", s)
}

// HSLookupURL searches for HS code tables
const HSLookupURL = "https://www.baidu.com/s?wd=HS编码查询"

// Product holds the attributes entered in the form
type Product struct {
	Name     string `json:"name" yaml:"name"`
	HSCode   string `json:"hs_code" yaml:"hs_code"`
	Material string `json:"material,omitempty" yaml:"material"`
	Power    Power  `json:"power" yaml:"power"`
	Target   Target `json:"target" yaml:"target"`
}

// Validate checks the required fields
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &apierrors.FieldError{Field: "name"}
	}
	if strings.TrimSpace(p.HSCode) == "" {
		return &apierrors.FieldError{Field: "hs_code"}
	}
	if _, err := ParsePower(string(p.Power)); err != nil {
		return err
	}
	if _, err := ParseTarget(string(p.Target)); err != nil {
		return err
	}
	return nil
}

// Normalize trims fields and fills enum defaults
func (p Product) Normalize() Product {
	p.Name = strings.TrimSpace(p.Name)
	p.HSCode = strings.TrimSpace(p.HSCode)
	p.Material = strings.TrimSpace(p.Material)
	if pw, err := ParsePower(string(p.Power)); err == nil {
		p.Power = pw
	}
	if t, err := ParseTarget(string(p.Target)); err == nil {
		p.Target = t
	}
	return p
}

// Slug returns a filesystem friendly name for the product
func (p Product) Slug() string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(p.Name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127:
			sb.WriteRune(r)
			lastDash = false
		case !lastDash && sb.Len() > 0:
			sb.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimRight(sb.String(), "-")
	if code := strings.TrimSpace(p.HSCode); code != "" {
		if slug == "" {
			return code
		}
		slug += "-" + code
	}
	if slug == "" {
		return "product"
	}
	return slug
}
