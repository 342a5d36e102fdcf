package models

import "gorm.io/gorm"

// Message represents a single chat message in the global room.
//
// Author fields are captured from the sender's session at creation time and
// never change afterwards; edits touch Text only, deletes touch Deleted only.
// Deletion is logical: rows are never removed from the table.
type Message struct {
	gorm.Model
	AuthorID    uint   `gorm:"not null;index" json:"author_id"`
	AuthorName  string `gorm:"size:255;not null" json:"author_name"`
	AuthorEmail string `gorm:"size:255;not null" json:"author_email"`
	Text        string `gorm:"not null" json:"text"`
	Deleted     bool   `gorm:"not null;default:false;index" json:"deleted"`
}
