package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const recordFormatVersion = 1

var errInvalidRecordVersion = errors.New("invalid session record version")

// Encode serializes r into the compact binary form stored in Redis. The session id is
// part of the key and is not repeated in the value.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersion)

	if len(r.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(r.UserID)))
	buf.WriteString(r.UserID)

	buf.Write(r.RefreshHash[:])

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.Expiration.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a value written by Encode.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersion {
		return nil, errInvalidRecordVersion
	}

	r := &Record{}

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	r.UserID = string(userID)

	if _, err := io.ReadFull(reader, r.RefreshHash[:]); err != nil {
		return nil, err
	}

	var createdAt, expiration int64
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &expiration); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(createdAt, 0)
	r.Expiration = time.Unix(expiration, 0)

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session record")
	}

	return r, nil
}
