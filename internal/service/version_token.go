package service

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// El token de concurrencia es opaco para los clientes: la columna version (uuid)
// viaja base64-codificada y se regenera en cada escritura. Un token ilegible se
// trata igual que uno vencido.

func codificarVersion(v uuid.UUID) string {
	return base64.StdEncoding.EncodeToString(v[:])
}

func decodificarVersion(token string) (uuid.UUID, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token ilegible: %w", ErrConflictoConcurrencia)
	}
	v, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token ilegible: %w", ErrConflictoConcurrencia)
	}
	return v, nil
}
