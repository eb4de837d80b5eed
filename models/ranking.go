package models

import "time"

// RankScopeKind различает глобальный рейтинг и рейтинг внутри категории.
type RankScopeKind string

const (
	ScopeGlobal     RankScopeKind = "global"
	ScopeByCategory RankScopeKind = "category"
)

// RankScope — явный tagged scope вместо ad hoc сопоставления строк.
// Для ScopeByCategory сначала отбираются команды по game_name; если таких нет,
// вторым шагом берутся команды, зарегистрированные на турниры с подходящим
// названием (осознанный fallback, унаследованный от поискового поведения).
type RankScope struct {
	Kind     RankScopeKind `json:"kind"`
	Category string        `json:"category,omitempty"`
}

func GlobalScope() RankScope {
	return RankScope{Kind: ScopeGlobal}
}

func CategoryScope(name string) RankScope {
	return RankScope{Kind: ScopeByCategory, Category: name}
}

// Tag — строковая метка scope-а для хранения в rank_snapshots.
func (s RankScope) Tag() string {
	if s.Kind == ScopeByCategory {
		return "category:" + s.Category
	}
	return "global"
}

// TeamRank — позиция команды в пересчитанном рейтинге. Ранги плотные,
// начинаются с 1, при равенстве (points, wins) не делятся.
type TeamRank struct {
	Team Team `json:"team"`
	Rank int  `json:"rank"`
}

// RankSnapshot — явная, помеченная scope-ом и временем фиксация рейтинга.
// Это кэш-проекция, а не источник истины: колонка rank у команды не хранится.
type RankSnapshot struct {
	Scope      string     `json:"scope"`
	ComputedAt time.Time  `json:"computed_at"`
	Entries    []TeamRank `json:"entries"`
}
