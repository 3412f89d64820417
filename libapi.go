package sigtap

import (
	backendpkg "github.com/drblury/sigtap/backend"
	enginepkg "github.com/drblury/sigtap/internal/engine"
	configpkg "github.com/drblury/sigtap/internal/engine/config"
	errspkg "github.com/drblury/sigtap/internal/engine/errors"
	idspkg "github.com/drblury/sigtap/internal/engine/ids"
	jsoncodec "github.com/drblury/sigtap/internal/engine/jsoncodec"
	loggingpkg "github.com/drblury/sigtap/internal/engine/logging"
	scanpkg "github.com/drblury/sigtap/internal/engine/scan"
)

type (
	Config       = configpkg.Config
	Engine       = enginepkg.Engine
	EngineState  = enginepkg.EngineState
	Dependencies = enginepkg.Dependencies
	RootProvider = enginepkg.RootProvider
	Diagnostics  = enginepkg.Diagnostics

	// Bus location
	Resolver   = enginepkg.Resolver
	BusLocator = enginepkg.BusLocator
	BusHandle  = enginepkg.BusHandle

	// Kind subscriptions
	KindSubscriber      = enginepkg.KindSubscriber
	KindLister          = enginepkg.KindLister
	SubscriptionManager = enginepkg.SubscriptionManager
	SubscribeOutcome    = enginepkg.SubscribeOutcome
	Subscription        = enginepkg.Subscription
	SetupReport         = enginepkg.SetupReport

	// Interception
	InterceptionEngine = enginepkg.InterceptionEngine
	DispatchTap        = enginepkg.DispatchTap
	InstalledHook      = enginepkg.InstalledHook
	InstallFailure     = enginepkg.InstallFailure

	// Aggregation
	Aggregator        = enginepkg.Aggregator
	AggregateSnapshot = enginepkg.AggregateSnapshot
	EventRecord       = enginepkg.EventRecord
	KindCount         = enginepkg.KindCount

	// Control surface and session hooks
	ControlSurface = enginepkg.ControlSurface
	SessionContext = enginepkg.SessionContext
	SessionHooks   = enginepkg.SessionHooks

	// Event relay
	EventRelay = enginepkg.EventRelay

	// Metrics
	SignalMetrics = enginepkg.SignalMetrics

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	ConfigValidationError = errspkg.ConfigValidationError

	// Graph scanning
	ScanNode     = scanpkg.Node
	ScanOrigin   = scanpkg.Origin
	GraphScanner = scanpkg.GraphScanner

	// Backend types (backend package)
	Backend             = backendpkg.Backend
	BackendRegistration = backendpkg.Registration
	JoinPoint           = backendpkg.JoinPoint
	PreHook             = backendpkg.PreHook
	PostHook            = backendpkg.PostHook
	Capabilities        = backendpkg.Capabilities

	// Backend registry (pluggable backend packages)
	BackendBuilder  = backendpkg.Builder
	BackendOptions  = backendpkg.Options
	BackendRegistry = backendpkg.Registry
)

var (
	NewEngine      = enginepkg.NewEngine
	ValidateConfig = configpkg.ValidateConfig
	LoadEnv        = configpkg.LoadEnv

	// Bus location
	NewBusLocator  = enginepkg.NewBusLocator
	AcceptTypeName = enginepkg.AcceptTypeName

	// Kind subscriptions and interception
	NewSubscriptionManager = enginepkg.NewSubscriptionManager
	NewInterceptionEngine  = enginepkg.NewInterceptionEngine
	KindFromArgs           = enginepkg.KindFromArgs

	// Aggregation and snapshots
	NewAggregator     = enginepkg.NewAggregator
	WriteSnapshotJSON = enginepkg.WriteSnapshotJSON
	WriteSnapshotText = enginepkg.WriteSnapshotText

	// Control surface
	NewControlSurface = enginepkg.NewControlSurface

	// Session hooks
	LoggingSessionHooks = enginepkg.LoggingSessionHooks
	RelaySessionHooks   = enginepkg.RelaySessionHooks

	// Event relay
	NewChannelRelay = enginepkg.NewChannelRelay
	NewRelay        = enginepkg.NewRelay

	// Metrics
	NewSignalMetrics = enginepkg.NewSignalMetrics

	// Graph scanning
	NewReflectScanner = scanpkg.NewReflectScanner
	ScanCollect       = scanpkg.Collect
	ScanFindFunc      = scanpkg.FindFunc
	ScanFindByType    = scanpkg.FindByTypeName

	// Join points
	ParseJoinPoint = backendpkg.ParseJoinPoint

	// Backend registry
	DefaultBackendRegistry = backendpkg.DefaultRegistry
	RegisterBackend        = backendpkg.Register
	BuildBackend           = backendpkg.Build
	BackendCapabilities    = backendpkg.GetCapabilities

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrConfigRequired      = errspkg.ErrConfigRequired
	ErrLoggerRequired      = errspkg.ErrLoggerRequired
	ErrBackendRequired     = errspkg.ErrBackendRequired
	ErrScannerRequired     = errspkg.ErrScannerRequired
	ErrRootsRequired       = errspkg.ErrRootsRequired
	ErrSubscriberRequired  = errspkg.ErrSubscriberRequired
	ErrBusTargetRequired   = errspkg.ErrBusTargetRequired
	ErrKindRequired        = errspkg.ErrKindRequired
	ErrCallbackRequired    = errspkg.ErrCallbackRequired
	ErrHookRequired        = errspkg.ErrHookRequired
	ErrPublisherRequired   = errspkg.ErrPublisherRequired
	ErrTopicRequired       = errspkg.ErrTopicRequired
	ErrAlreadyInitialized  = errspkg.ErrAlreadyInitialized
	ErrJoinPointUnresolved = errspkg.ErrJoinPointUnresolved
	ErrMarshalIncompatible = errspkg.ErrMarshalIncompatible
	ErrNodeInaccessible    = errspkg.ErrNodeInaccessible
	ErrUnknownToggle       = errspkg.ErrUnknownToggle
	ErrUnknownDump         = errspkg.ErrUnknownDump

	IsMarshalIncompatible = errspkg.IsMarshalIncompatible

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewNopLogger              = loggingpkg.NewNopLogger
	NewWatermillAdapter       = loggingpkg.NewWatermillAdapter

	CreateULID = idspkg.CreateULID
)

// Engine lifecycle states.
const (
	StateUninitialized = enginepkg.StateUninitialized
	StateSearching     = enginepkg.StateSearching
	StateAttached      = enginepkg.StateAttached
	StateDetached      = enginepkg.StateDetached
)

// Observation paths recorded on each event.
const (
	PathTyped    = enginepkg.PathTyped
	PathFallback = enginepkg.PathFallback
	PathCall     = enginepkg.PathCall
)

// Control surface toggles registered by every engine.
const (
	ToggleLogging        = enginepkg.ToggleLogging
	ToggleVerbose        = enginepkg.ToggleVerbose
	ToggleCaptureSignals = enginepkg.ToggleCaptureSignals
	ToggleCaptureCalls   = enginepkg.ToggleCaptureCalls
	ToggleRelay          = enginepkg.ToggleRelay
)

// Dump triggers registered by every engine.
const (
	DumpSnapshot = enginepkg.DumpSnapshot
	DumpReset    = enginepkg.DumpReset
)

// Subscription outcomes reported per kind after a setup pass.
const (
	SubscribeOK      = enginepkg.SubscribeOK
	SubscribeSkipped = enginepkg.SubscribeSkipped
	SubscribeFailed  = enginepkg.SubscribeFailed
)

// Hook roles reported in diagnostics.
const (
	HookRoleObserver    = enginepkg.HookRoleObserver
	HookRolePre         = enginepkg.HookRolePre
	HookRolePost        = enginepkg.HookRolePost
	HookRoleDispatchTap = enginepkg.HookRoleDispatchTap
)

// Metadata keys set on relayed event records.
const (
	MetadataKeyKind = enginepkg.MetadataKeyKind
	MetadataKeyPath = enginepkg.MetadataKeyPath
)
