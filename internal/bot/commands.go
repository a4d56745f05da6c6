package bot

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
)

// Command names as registered with Discord.
const (
	CommandSetRoles     = "set-roles"
	CommandExcludeRole  = "exclude-role"
	CommandAggregate    = "aggregate"
	CommandLeaderboard  = "leaderboard"
	CommandLevel        = "level"
	CommandLevelTop     = "level-top"
	CommandRoleColor    = "role-color"
	CommandResetStreaks = "reset-streaks"
	CommandFortune      = "fortune"
	CommandGif          = "gif"
	CommandHistory      = "history"
	CommandAuthorize    = "authorize"
	CommandLevelRole    = "level-role"
	CommandLevelCard    = "level-card"
)

// ModalAuthCode is the custom ID of the invite code submission modal.
const ModalAuthCode = "auth_code_modal"

func adminOnly() *json.Nullable[discord.Permissions] {
	return json.NewNullablePtr(discord.PermissionAdministrator)
}

func commands() []discord.ApplicationCommandCreate {
	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:                     CommandSetRoles,
			Description:              "Set the first and other ranking roles",
			DefaultMemberPermissions: adminOnly(),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionRole{
					Name:        "first",
					Description: "Role for the top chatter",
					Required:    true,
				},
				discord.ApplicationCommandOptionRole{
					Name:        "other",
					Description: "Role for ranks 2-6",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     CommandExcludeRole,
			Description:              "Add or remove a role exclusion from ranking",
			DefaultMemberPermissions: adminOnly(),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "action",
					Description: "Whether to add or remove the exclusion",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "add", Value: "add"},
						{Name: "remove", Value: "remove"},
					},
				},
				discord.ApplicationCommandOptionRole{
					Name:        "role",
					Description: "Role whose holders are excluded",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     CommandAggregate,
			Description:              "Run a ranking aggregation",
			DefaultMemberPermissions: adminOnly(),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "start",
					Description: "Window start: YYYY-MM-DD, 't' for today, 'last' for since last run",
				},
				discord.ApplicationCommandOptionString{
					Name:        "end",
					Description: "Window end: YYYY-MM-DD or 't' for today",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandLeaderboard,
			Description: "Show the live message leaderboard",
		},
		discord.SlashCommandCreate{
			Name:        CommandLevel,
			Description: "Show a chat level card",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionUser{
					Name:        "user",
					Description: "User to show, defaults to you",
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandLevelTop,
			Description: "Show the highest level members",
		},
		discord.SlashCommandCreate{
			Name:                     CommandRoleColor,
			Description:              "Set the first role's color",
			DefaultMemberPermissions: adminOnly(),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "color",
					Description: "Hex color, e.g. #ffcc00",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     CommandResetStreaks,
			Description:              "Reset every streak counter in this server",
			DefaultMemberPermissions: adminOnly(),
		},
		discord.SlashCommandCreate{
			Name:        CommandFortune,
			Description: "Draw today's fortune",
		},
		discord.SlashCommandCreate{
			Name:        CommandGif,
			Description: "Search for a GIF",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "query",
					Description: "What to search for",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        CommandHistory,
			Description: "Show the activity trend across aggregations",
		},
		discord.SlashCommandCreate{
			Name:                     CommandAuthorize,
			Description:              "Unlock the bot with an invite code",
			DefaultMemberPermissions: adminOnly(),
		},
		discord.SlashCommandCreate{
			Name:        CommandLevelCard,
			Description: "Customize your level card background",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "top",
					Description: "Top gradient color, e.g. #302160",
					Required:    true,
				},
				discord.ApplicationCommandOptionString{
					Name:        "bottom",
					Description: "Bottom gradient color, e.g. #5a3c82",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:                     CommandLevelRole,
			Description:              "Grant a role when users reach a level",
			DefaultMemberPermissions: adminOnly(),
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "threshold",
					Description: "Level at which the role is granted",
					Required:    true,
				},
				discord.ApplicationCommandOptionRole{
					Name:        "role",
					Description: "Role to grant",
					Required:    true,
				},
			},
		},
	}
}
