// Package schema provides the static, role-keyed database description
// that grounds SQL generation. Patients and doctors see the restricted
// variant with privileged columns annotated; admins see the full
// multi-schema description.
package schema

import "github.com/mosefak/medchat/internal/models"

// ForRole returns the schema description for a role. Unrecognized roles
// never reach this point: the request boundary resolves roles into the
// closed enum first.
func ForRole(role models.Role) string {
	switch role {
	case models.RolePatient, models.RoleDoctor:
		return patientAndDoctorTables
	default:
		return adminTables
	}
}

const patientAndDoctorTables = `
CREATE TABLE [Doctors] (
    [Id] int NOT NULL IDENTITY,
    [AppUserId] int NOT NULL,
    [YearOfExperience] int NOT NULL,
    [AboutMe] nvarchar(max) NOT NULL,
    [NumberOfReviews] int NOT NULL,
    [ConsultationFee] decimal(18,2) NOT NULL,
    CONSTRAINT [PK_Doctors] PRIMARY KEY ([Id])
);

CREATE TABLE [Appointments] (
    [Id] int NOT NULL,
    [DoctorId] int NOT NULL,
    [AppUserId] int NOT NULL,
    [StartDate] datetime2 NOT NULL,
    [EndDate] datetime2 NOT NULL,
    [ProblemDescription] nvarchar(max) NOT NULL, ## Private
    [AppointmentStatus] nvarchar(max) NOT NULL,
    [CancellationReason] nvarchar(max) NULL, ## Private
    [IsPaid] bit NOT NULL, ## Private
    CONSTRAINT [PK_Appointments] PRIMARY KEY ([Id], [AppUserId], [DoctorId]),
    CONSTRAINT [FK_Appointments_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

CREATE TABLE [ClinicAddresses] (
    [Id] int NOT NULL IDENTITY,
    [Street] nvarchar(max) NOT NULL,
    [City] nvarchar(max) NOT NULL,
    [Country] nvarchar(max) NOT NULL,
    [DoctorId] int NOT NULL,
    CONSTRAINT [PK_ClinicAddresses] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_ClinicAddresses_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

CREATE TABLE [Reviews] (
    [Id] int NOT NULL IDENTITY,
    [Rate] int NOT NULL,
    [Comment] nvarchar(max) NULL,
    [AppUserId] int NOT NULL,
    [DoctorId] int NULL,
    CONSTRAINT [PK_Reviews] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_Reviews_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id])
);

CREATE TABLE [Specializations] (
    [Id] int NOT NULL IDENTITY,
    [Name] nvarchar(max) NOT NULL,
    [Category] int NOT NULL,
    [DoctorId] int NOT NULL,
    CONSTRAINT [PK_Specializations] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_Specializations_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

CREATE TABLE [WorkingTimes] (
    [Id] int NOT NULL IDENTITY,
    [DoctorId] int NOT NULL,
    [DayOfWeek] nvarchar(max) NOT NULL,
    [StartTime] TIME NOT NULL,
    [EndTime] TIME NOT NULL,
    CONSTRAINT [PK_WorkingTimes] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_WorkingTimes_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

## Private
CREATE TABLE [Security].[Users] (
    [Id] int NOT NULL IDENTITY,
    [FirstName] nvarchar(250) NOT NULL,
    [LastName] nvarchar(250) NOT NULL,
    [Gender] nvarchar(max) NULL,
    [Address_Id] int NOT NULL,
    [Address_State] nvarchar(max) NOT NULL,
    [Address_City] nvarchar(max) NOT NULL,
    [Address_Street] nvarchar(max) NOT NULL,
    [Address_ZipCode] int NOT NULL,
    [DateOfBirth] datetime2 NULL,
    [ImagePath] nvarchar(max) NULL,
    [CreationTime] datetime2 NOT NULL,
    [UserName] nvarchar(256) NULL,
    [Email] nvarchar(256) NULL,
    [EmailConfirmed] bit NOT NULL,
    [PhoneNumber] nvarchar(max) NULL,
    [PhoneNumberConfirmed] bit NOT NULL,
    [TwoFactorEnabled] bit NOT NULL,
    CONSTRAINT [PK_Users] PRIMARY KEY ([Id])
);
`

const adminTables = `
CREATE TABLE [Doctors] (
    [Id] int NOT NULL IDENTITY,
    [AppUserId] int NOT NULL,
    [YearOfExperience] int NOT NULL,
    [LicenseNumber] nvarchar(max) NOT NULL,
    [AboutMe] nvarchar(max) NOT NULL,
    [NumberOfReviews] int NOT NULL,
    [ConsultationFee] decimal(18,2) NOT NULL,
    [CreatedAt] datetime2 NOT NULL,
    [CreatedByUserId] int NOT NULL,
    [IsDeleted] bit NOT NULL,
    [DeletedTime] datetime2 NULL,
    CONSTRAINT [PK_Doctors] PRIMARY KEY ([Id])
);

CREATE TABLE [Appointments] (
    [Id] int NOT NULL,
    [DoctorId] int NOT NULL,
    [AppUserId] int NOT NULL,
    [StartDate] datetime2 NOT NULL,
    [EndDate] datetime2 NOT NULL,
    [ProblemDescription] nvarchar(max) NOT NULL,
    [AppointmentStatus] nvarchar(max) NOT NULL,
    [CancellationReason] nvarchar(max) NULL,
    [IsPaid] bit NOT NULL,
    [CreatedAt] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    CONSTRAINT [PK_Appointments] PRIMARY KEY ([Id], [AppUserId], [DoctorId]),
    CONSTRAINT [FK_Appointments_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

CREATE TABLE [ClinicAddresses] (
    [Id] int NOT NULL IDENTITY,
    [Street] nvarchar(max) NOT NULL,
    [City] nvarchar(max) NOT NULL,
    [Country] nvarchar(max) NOT NULL,
    [DoctorId] int NOT NULL,
    [CreatedAt] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    CONSTRAINT [PK_ClinicAddresses] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_ClinicAddresses_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

CREATE TABLE [Reviews] (
    [Id] int NOT NULL IDENTITY,
    [Rate] int NOT NULL,
    [Comment] nvarchar(max) NULL,
    [AppUserId] int NOT NULL,
    [DoctorId] int NULL,
    [CreatedAt] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    CONSTRAINT [PK_Reviews] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_Reviews_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id])
);

CREATE TABLE [Specializations] (
    [Id] int NOT NULL IDENTITY,
    [Name] nvarchar(max) NOT NULL,
    [Category] int NOT NULL,
    [DoctorId] int NOT NULL,
    [CreatedAt] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    CONSTRAINT [PK_Specializations] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_Specializations_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

CREATE TABLE [WorkingTimes] (
    [Id] int NOT NULL IDENTITY,
    [DoctorId] int NOT NULL,
    [DayOfWeek] nvarchar(max) NOT NULL,
    [StartTime] TIME NOT NULL,
    [EndTime] TIME NOT NULL,
    [CreatedAt] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    CONSTRAINT [PK_WorkingTimes] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_WorkingTimes_Doctors_DoctorId] FOREIGN KEY ([DoctorId]) REFERENCES [Doctors] ([Id]) ON DELETE CASCADE
);

CREATE TABLE [Payments] (
    [Id] int NOT NULL IDENTITY,
    [Amount] decimal(18,2) NOT NULL,
    [Currency] nvarchar(max) NOT NULL,
    [PaymentMethod] nvarchar(max) NOT NULL,
    [PaymentDate] datetime2 NOT NULL,
    [TransactionId] nvarchar(max) NOT NULL,
    [IsSuccessful] bit NOT NULL,
    [PaymentIntentId] nvarchar(max) NOT NULL,
    [AppointmentId] int NOT NULL,
    [AppointmentAppUserId] int NOT NULL,
    [AppointmentDoctorId] int NOT NULL,
    [PatientId] int NOT NULL,
    [CreatedAt] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    CONSTRAINT [PK_Payments] PRIMARY KEY ([Id]),
    CONSTRAINT [FK_Payments_Appointments] FOREIGN KEY ([AppointmentId], [AppointmentAppUserId], [AppointmentDoctorId]) REFERENCES [Appointments] ([Id], [AppUserId], [DoctorId]) ON DELETE CASCADE
);

CREATE TABLE [Security].[Roles] (
    [Id] int NOT NULL IDENTITY,
    [CreationTime] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    [Name] nvarchar(256) NULL,
    [NormalizedName] nvarchar(256) NULL,
    CONSTRAINT [PK_Roles] PRIMARY KEY ([Id])
);

CREATE TABLE [Security].[Users] (
    [Id] int NOT NULL IDENTITY,
    [FirstName] nvarchar(250) NOT NULL,
    [LastName] nvarchar(250) NOT NULL,
    [Gender] nvarchar(max) NULL,
    [Address_State] nvarchar(max) NOT NULL,
    [Address_City] nvarchar(max) NOT NULL,
    [Address_Street] nvarchar(max) NOT NULL,
    [Address_ZipCode] int NOT NULL,
    [DateOfBirth] datetime2 NULL,
    [CreationTime] datetime2 NOT NULL,
    [IsDeleted] bit NOT NULL,
    [IsDisabled] bit NOT NULL,
    [UserName] nvarchar(256) NULL,
    [Email] nvarchar(256) NULL,
    [EmailConfirmed] bit NOT NULL,
    [PhoneNumber] nvarchar(max) NULL,
    [PhoneNumberConfirmed] bit NOT NULL,
    [TwoFactorEnabled] bit NOT NULL,
    CONSTRAINT [PK_Users] PRIMARY KEY ([Id])
);

CREATE TABLE [Security].[UserRoles] (
    [UserId] int NOT NULL,
    [RoleId] int NOT NULL,
    CONSTRAINT [PK_UserRoles] PRIMARY KEY ([UserId], [RoleId]),
    CONSTRAINT [FK_UserRoles_Roles_RoleId] FOREIGN KEY ([RoleId]) REFERENCES [Security].[Roles] ([Id]) ON DELETE CASCADE,
    CONSTRAINT [FK_UserRoles_Users_UserId] FOREIGN KEY ([UserId]) REFERENCES [Security].[Users] ([Id]) ON DELETE CASCADE
);
`
