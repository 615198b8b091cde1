package model

import "time"

type Artist struct {
	ID               int64
	Name             string
	ManagerID        int64
	FirstReleaseDate time.Time
	Contract         bool
	ProfileCreated   bool
	ProfileVerified  bool
	PromoLinked      bool
	PromoRequested   bool
	CreatedAt        time.Time
}

// OnboardingCheck names one monotonic onboarding flag of an artist.
type OnboardingCheck string

const (
	CheckContract        OnboardingCheck = "contract"
	CheckProfileCreated  OnboardingCheck = "mmprofile"
	CheckProfileVerified OnboardingCheck = "mmverify"
	CheckPromoLinked     OnboardingCheck = "ytlink"
	CheckPromoRequested  OnboardingCheck = "ytnote"
)

// OnboardingChecks is the order in which managers are asked about flags.
var OnboardingChecks = []OnboardingCheck{
	CheckContract,
	CheckProfileCreated,
	CheckProfileVerified,
	CheckPromoLinked,
	CheckPromoRequested,
}

var checkInfo = map[OnboardingCheck]struct{ label, question string }{
	CheckContract:        {"📝 Контракт", "Контракт с артистом подписан?"},
	CheckProfileCreated:  {"🎵 MM Профиль", "Профиль артиста на стриминге создан?"},
	CheckProfileVerified: {"✅ MM Верификация", "Профиль артиста верифицирован?"},
	CheckPromoLinked:     {"📺 YouTube Линк", "Канал YouTube привязан к профилю?"},
	CheckPromoRequested:  {"🎼 YouTube Нота", "Заявка на ноту YouTube отправлена?"},
}

func ParseCheck(s string) (OnboardingCheck, bool) {
	c := OnboardingCheck(s)
	_, ok := checkInfo[c]
	return c, ok
}

func (c OnboardingCheck) Label() string    { return checkInfo[c].label }
func (c OnboardingCheck) Question() string { return checkInfo[c].question }

func (a Artist) Done(c OnboardingCheck) bool {
	switch c {
	case CheckContract:
		return a.Contract
	case CheckProfileCreated:
		return a.ProfileCreated
	case CheckProfileVerified:
		return a.ProfileVerified
	case CheckPromoLinked:
		return a.PromoLinked
	case CheckPromoRequested:
		return a.PromoRequested
	}
	return false
}

// NextPending returns the first unset check in priority order.
func (a Artist) NextPending() (OnboardingCheck, bool) {
	for _, c := range OnboardingChecks {
		if !a.Done(c) {
			return c, true
		}
	}
	return "", false
}

// Badges renders the set flags as a compact emoji string.
func (a Artist) Badges() string {
	out := ""
	for _, c := range OnboardingChecks {
		if a.Done(c) {
			l := []rune(c.Label())
			out += string(l[0])
		}
	}
	return out
}
