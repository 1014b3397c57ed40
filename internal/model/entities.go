package model

import (
	"golang.org/x/crypto/bcrypt"
)

type State struct {
	Base
	Name string `json:"name" hbnb:"required"`
}

func (*State) Kind() Kind { return KindState }

type City struct {
	Base
	StateID string `json:"state_id" hbnb:"parent=State"`
	Name    string `json:"name" hbnb:"required"`
}

func (*City) Kind() Kind { return KindCity }

type User struct {
	Base
	Email     string `json:"email" hbnb:"required,immutable" validate:"omitempty,email"`
	Password  string `json:"password" hbnb:"required,hidden"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (*User) Kind() Kind { return KindUser }

// Prepare replaces a plaintext password with its bcrypt hash.
// Passwords that already are bcrypt hashes are kept as they are; an empty
// password is rejected.
func (u *User) Prepare() error {
	if u.Password == "" {
		return &FieldError{Field: "password", Message: "must not be empty"}
	}
	if _, err := bcrypt.Cost([]byte(u.Password)); err == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return &FieldError{Field: "password", Message: err.Error()}
	}
	u.Password = string(hash)
	return nil
}

// Place is a rentable place inside a city. UserID is the owner.
type Place struct {
	Base
	CityID          string  `json:"city_id" hbnb:"parent=City"`
	UserID          string  `json:"user_id" hbnb:"required,ref=User,immutable"`
	Name            string  `json:"name" hbnb:"required"`
	Description     string  `json:"description"`
	NumberRooms     int     `json:"number_rooms" validate:"min=0"`
	NumberBathrooms int     `json:"number_bathrooms" validate:"min=0"`
	MaxGuest        int     `json:"max_guest" validate:"min=0"`
	PriceByNight    int     `json:"price_by_night" validate:"min=0"`
	Latitude        float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude       float64 `json:"longitude" validate:"min=-180,max=180"`
}

func (*Place) Kind() Kind { return KindPlace }

type Review struct {
	Base
	PlaceID string `json:"place_id" hbnb:"parent=Place"`
	UserID  string `json:"user_id" hbnb:"required,ref=User,immutable"`
	Text    string `json:"text" hbnb:"required"`
}

func (*Review) Kind() Kind { return KindReview }
