package types

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// MarshalBinary converts t into a slice of bytes that can be decoded with
// UnmarshalBinary.
func (t Type) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncString(t.Name)...)
	data = append(data, rezi.EncInt(len(t.Args))...)
	for i := range t.Args {
		data = append(data, rezi.EncBinary(t.Args[i])...)
	}

	return data, nil
}

// UnmarshalBinary takes a slice of bytes created by MarshalBinary and decodes
// it into t. All of t's fields are replaced by the decoded values.
func (t *Type) UnmarshalBinary(data []byte) error {
	var bytesRead int
	var err error

	t.Name, bytesRead, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("name: %w", err)
	}
	data = data[bytesRead:]

	var numArgs int
	numArgs, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("arg count: %w", err)
	}
	data = data[bytesRead:]

	t.Args = nil
	for i := 0; i < numArgs; i++ {
		var arg Type
		bytesRead, err = rezi.DecBinary(data, &arg)
		if err != nil {
			return fmt.Errorf("arg[%d]: %w", i, err)
		}
		data = data[bytesRead:]
		t.Args = append(t.Args, arg)
	}

	return nil
}

// MarshalBinary converts mty into a slice of bytes that can be decoded with
// UnmarshalBinary.
func (mty MethodType) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncInt(len(mty.ArgumentTypes))...)
	for i := range mty.ArgumentTypes {
		data = append(data, rezi.EncBinary(mty.ArgumentTypes[i])...)
	}
	data = append(data, rezi.EncBinary(mty.ReturnType)...)

	return data, nil
}

// UnmarshalBinary takes a slice of bytes created by MarshalBinary and decodes
// it into mty. All of mty's fields are replaced by the decoded values.
func (mty *MethodType) UnmarshalBinary(data []byte) error {
	var bytesRead int
	var err error

	var numArgs int
	numArgs, bytesRead, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("argument type count: %w", err)
	}
	data = data[bytesRead:]

	mty.ArgumentTypes = nil
	for i := 0; i < numArgs; i++ {
		var arg Type
		bytesRead, err = rezi.DecBinary(data, &arg)
		if err != nil {
			return fmt.Errorf("argument type[%d]: %w", i, err)
		}
		data = data[bytesRead:]
		mty.ArgumentTypes = append(mty.ArgumentTypes, arg)
	}

	_, err = rezi.DecBinary(data, &mty.ReturnType)
	if err != nil {
		return fmt.Errorf("return type: %w", err)
	}

	return nil
}
