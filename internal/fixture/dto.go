package fixture

import (
	"fmt"

	"github.com/Chasungsoo/querydsl/internal/dsl"
)

// UserDto is a hand-written result type populated through setters or
// fields.
type UserDto struct {
	Name string
	Age  int64
}

// NewUserDto is the constructor used by constructor projections.
func NewUserDto(name string, age int64) UserDto {
	return UserDto{Name: name, Age: age}
}

// Mutators implements dsl.Mutators. The age setter rejects negative
// values.
func (d *UserDto) Mutators() map[string]dsl.Mutator {
	return map[string]dsl.Mutator{
		"name": dsl.Set(&d.Name),
		"age": func(v any) error {
			age, err := dsl.Convert[int64](v)
			if err != nil {
				return err
			}
			if age < 0 {
				return fmt.Errorf("age %d is negative", age)
			}
			d.Age = age
			return nil
		},
	}
}

// FieldRefs implements dsl.FieldRefs.
func (d *UserDto) FieldRefs() map[string]any {
	return map[string]any{
		"name": &d.Name,
		"age":  &d.Age,
	}
}

// MemberSummary is the result of a constructor projection over an entity
// and a value.
type MemberSummary struct {
	Member   *Member
	TeamName string
}
