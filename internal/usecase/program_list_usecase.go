package usecase

import (
	"context"

	"bizmatch/internal/repository"
)

type ProgramListUsecase interface {
	ListPrograms(ctx context.Context, f repository.ProgramFilter) ([]repository.ProgramRow, error)
}

type ProgramList struct {
	programs repository.ProgramRepository
}

func NewProgramListUsecase(programs repository.ProgramRepository) *ProgramList {
	return &ProgramList{programs: programs}
}

func (u *ProgramList) ListPrograms(ctx context.Context, f repository.ProgramFilter) ([]repository.ProgramRow, error) {
	if f.Limit < 0 || f.Limit > 100 || f.Offset < 0 {
		return nil, ErrInvalidInput
	}
	rows, err := u.programs.ListPrograms(ctx, f)
	if err != nil {
		return nil, ErrInternal
	}
	return rows, nil
}
