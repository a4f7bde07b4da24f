package storage

import (
	"errors"
	"testing"
)

func TestContacts(t *testing.T) {
	s := openTestStore(t)

	alex, err := s.AddContact("Alex", "+15550001")
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	if _, err := s.AddContact("Jordan", "+15550002"); err != nil {
		t.Fatalf("AddContact: %v", err)
	}

	list, err := s.ListContacts()
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Alex" || list[1].Name != "Jordan" {
		t.Errorf("ListContacts = %+v", list)
	}

	got, err := s.GetContact(alex.ID)
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}
	if got.Phone != "+15550001" {
		t.Errorf("Phone = %q", got.Phone)
	}

	if err := s.DeleteContact(alex.ID); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	if _, err := s.GetContact(alex.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetContact after delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteContact(alex.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteContact(missing) err = %v, want ErrNotFound", err)
	}
}

func TestListContacts_Empty(t *testing.T) {
	s := openTestStore(t)
	list, err := s.ListContacts()
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("ListContacts = %v, want empty slice", list)
	}
}
