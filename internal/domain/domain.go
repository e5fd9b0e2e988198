// Package domain re-exports the model types under one import path so repos
// and services can refer to them as types.X.
package domain

import (
	"github.com/stoalearn/stoa-backend/internal/domain/auth"
	"github.com/stoalearn/stoa-backend/internal/domain/learning"
	"github.com/stoalearn/stoa-backend/internal/domain/user"
)

const (
	RoleStudent = user.RoleStudent
	RoleAdmin   = user.RoleAdmin

	StatusLocked            = learning.StatusLocked
	StatusReady             = learning.StatusReady
	StatusStarted           = learning.StatusStarted
	StatusWatched           = learning.StatusWatched
	StatusInitialReflection = learning.StatusInitialReflection
	StatusMasteryTesting    = learning.StatusMasteryTesting
	StatusMastered          = learning.StatusMastered

	AvailabilityLocked     = learning.AvailabilityLocked
	AvailabilityAvailable  = learning.AvailabilityAvailable
	AvailabilityInProgress = learning.AvailabilityInProgress
	AvailabilityCompleted  = learning.AvailabilityCompleted

	ImportanceLevelMin     = learning.ImportanceLevelMin
	ImportanceLevelMax     = learning.ImportanceLevelMax
	ImportanceLevelDefault = learning.ImportanceLevelDefault
)

type User = user.User
type UserToken = auth.UserToken

type Lecture = learning.Lecture
type LectureSummary = learning.LectureSummary
type LecturePrerequisite = learning.LecturePrerequisite
type LectureProgress = learning.LectureProgress
type ProgressTransition = learning.ProgressTransition
type WorkflowStatus = learning.WorkflowStatus
type Availability = learning.Availability
