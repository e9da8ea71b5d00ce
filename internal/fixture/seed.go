package fixture

import "github.com/Chasungsoo/querydsl/internal/store"

// Team and member identifiers of the seed data.
const (
	TeamA int64 = 1
	TeamB int64 = 2
)

// Records returns the seed data: two teams with two members each.
//
//	teamA: member1 (10), member2 (20)
//	teamB: member3 (30), member4 (40)
func Records() []store.Record {
	return []store.Record{
		TeamRecord(TeamA, "teamA"),
		TeamRecord(TeamB, "teamB"),
		MemberRecord(1, "member1", 10, TeamA),
		MemberRecord(2, "member2", 20, TeamA),
		MemberRecord(3, "member3", 30, TeamB),
		MemberRecord(4, "member4", 40, TeamB),
	}
}

// TeamRecord builds a team row.
func TeamRecord(id int64, name string) store.Record {
	return store.Record{Entity: "Team", Values: map[string]any{"id": id, "name": name}}
}

// MemberRecord builds a member row. A nil username or team is stored as
// null.
func MemberRecord(id int64, username any, age int64, team any) store.Record {
	return store.Record{Entity: "Member", Values: map[string]any{
		"id":       id,
		"username": username,
		"age":      age,
		"team":     team,
	}}
}
