// Package callback encodes and decodes inline button payloads as kind_arg tokens.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hihikaAAa/label-bot/internal/model"
)

type Kind string

const (
	Form                 Kind = "form"
	Cancel               Kind = "cancel"
	Ignore               Kind = "ign"
	Take                 Kind = "take"
	Finish               Kind = "fin"
	Reject               Kind = "rej"
	ConfirmReject        Kind = "confrej"
	AdminDelete          Kind = "admdel"
	ConfirmDelete        Kind = "confdel"
	ReleasePage          Kind = "relpage"
	DeleteRelease        Kind = "delrel"
	ConfirmDeleteRelease Kind = "confdelrel"
	RemoveUser           Kind = "rmusr"
	ArtistCard           Kind = "art"
	Onboard              Kind = "onb"
)

// MaxLen is Telegram's limit on callback_data.
const MaxLen = 64

var ErrUnknown = errors.New("unknown callback")

var withID = map[Kind]bool{
	Take: true, Finish: true, Reject: true, ConfirmReject: true,
	AdminDelete: true, ConfirmDelete: true, ReleasePage: true,
	DeleteRelease: true, ConfirmDeleteRelease: true, RemoveUser: true,
	ArtistCard: true,
}

type Data struct {
	Kind  Kind
	ID    int64
	Value string
	Check model.OnboardingCheck
	Yes   bool
}

func ID(k Kind, id int64) string {
	return string(k) + "_" + strconv.FormatInt(id, 10)
}

// FormValue carries a choice answer back to the form engine. Values are kept verbatim.
func FormValue(v string) string {
	s := string(Form) + "_" + v
	if len(s) > MaxLen {
		s = s[:MaxLen]
	}
	return s
}

func OnboardAnswer(artistID int64, c model.OnboardingCheck, yes bool) string {
	ans := "no"
	if yes {
		ans = "yes"
	}
	return fmt.Sprintf("%s_%d_%s_%s", Onboard, artistID, c, ans)
}

func Parse(s string) (Data, error) {
	switch Kind(s) {
	case Cancel, Ignore:
		return Data{Kind: Kind(s)}, nil
	}
	head, rest, ok := strings.Cut(s, "_")
	if !ok {
		return Data{}, fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	k := Kind(head)
	switch {
	case k == Form:
		return Data{Kind: Form, Value: rest}, nil
	case k == Onboard:
		return parseOnboard(rest)
	case withID[k]:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id < 0 {
			return Data{}, fmt.Errorf("%w: bad id in %q", ErrUnknown, s)
		}
		return Data{Kind: k, ID: id}, nil
	}
	return Data{}, fmt.Errorf("%w: %q", ErrUnknown, s)
}

func parseOnboard(rest string) (Data, error) {
	parts := strings.Split(rest, "_")
	if len(parts) != 3 {
		return Data{}, fmt.Errorf("%w: onboarding %q", ErrUnknown, rest)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Data{}, fmt.Errorf("%w: onboarding %q", ErrUnknown, rest)
	}
	c, ok := model.ParseCheck(parts[1])
	if !ok || (parts[2] != "yes" && parts[2] != "no") {
		return Data{}, fmt.Errorf("%w: onboarding %q", ErrUnknown, rest)
	}
	return Data{Kind: Onboard, ID: id, Check: c, Yes: parts[2] == "yes"}, nil
}
